package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoleChangeRequest struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
	Reason   string `json:"reason,omitempty"`
}

type RoleGrantDTO struct {
	GrantID   string `json:"grant_id"`
	Identity  string `json:"identity"`
	Role      string `json:"role"`
	GrantedBy string `json:"granted_by"`
	Reason    string `json:"reason,omitempty"`
	Revoked   bool   `json:"revoked"`
	RevokedBy string `json:"revoked_by,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

type RoleChangeResponse struct {
	Status string       `json:"status"`
	Data   RoleGrantDTO `json:"data"`
}

type IdentityRolesResponse struct {
	Status string         `json:"status"`
	Data   []RoleGrantDTO `json:"data"`
}
