package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AllocationDTO struct {
	Role        string `json:"role"`
	Beneficiary string `json:"beneficiary"`
	BasisPoints int64  `json:"basis_points"`
}

type ConfigureSplitRequest struct {
	Allocations         []AllocationDTO `json:"allocations"`
	PlatformBeneficiary string          `json:"platform_beneficiary"`
	PlatformBasisPoints int64           `json:"platform_basis_points"`
}

type PayoutSplitDTO struct {
	ClaimID             string          `json:"claim_id"`
	Allocations         []AllocationDTO `json:"allocations"`
	PlatformBeneficiary string          `json:"platform_beneficiary"`
	PlatformBasisPoints int64           `json:"platform_basis_points"`
	UpdatedAt           string          `json:"updated_at"`
}

type PayoutSplitResponse struct {
	Status string         `json:"status"`
	Data   PayoutSplitDTO `json:"data"`
}

type SaleDTO struct {
	SaleID      string  `json:"sale_id"`
	ClaimID     string  `json:"claim_id"`
	BatchID     string  `json:"batch_id"`
	Quantity    float64 `json:"quantity"`
	TotalPrice  int64   `json:"total_price"`
	Buyer       string  `json:"buyer"`
	Seller      string  `json:"seller"`
	Distributed bool    `json:"distributed"`
	CreatedAt   string  `json:"created_at"`
}

type SaleResponse struct {
	Status string  `json:"status"`
	Data   SaleDTO `json:"data"`
}

type SaleListResponse struct {
	Status string    `json:"status"`
	Data   []SaleDTO `json:"data"`
}

type PendingResponse struct {
	Status string `json:"status"`
	Data   struct {
		Identity string `json:"identity"`
		Amount   int64  `json:"amount"`
	} `json:"data"`
}

type WithdrawResponse struct {
	Status string `json:"status"`
	Data   struct {
		Identity string `json:"identity"`
		Amount   int64  `json:"amount"`
	} `json:"data"`
}
