package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitEvidenceRequest struct {
	ClaimID         string  `json:"claim_id"`
	SourceKind      string  `json:"source_kind"`
	ContentRef      string  `json:"content_ref"`
	ClaimedQuantity float64 `json:"claimed_quantity"`
}

type DecideEvidenceRequest struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note"`
}

type RegisterClaimRequest struct {
	ClaimID       string             `json:"claim_id"`
	MinimumCounts map[string]int     `json:"minimum_counts"`
	Weights       map[string]float64 `json:"weights"`
	Threshold     float64            `json:"threshold"`
	Beneficiary   string             `json:"beneficiary"`
	Vintage       string             `json:"vintage"`
	Standard      string             `json:"standard"`
}

type SubmissionDTO struct {
	SubmissionID    string  `json:"submission_id"`
	ClaimID         string  `json:"claim_id"`
	SourceKind      string  `json:"source_kind"`
	ContentRef      string  `json:"content_ref"`
	Submitter       string  `json:"submitter"`
	ClaimedQuantity float64 `json:"claimed_quantity"`
	Decision        string  `json:"decision"`
	DecisionNote    string  `json:"decision_note,omitempty"`
	DecidedBy       string  `json:"decided_by,omitempty"`
	SubmittedAt     string  `json:"submitted_at"`
	DecidedAt       string  `json:"decided_at,omitempty"`
}

type SubmissionResponse struct {
	Status string        `json:"status"`
	Data   SubmissionDTO `json:"data"`
}

type SubmissionListResponse struct {
	Status string          `json:"status"`
	Data   []SubmissionDTO `json:"data"`
}

type DecideResponse struct {
	Status string `json:"status"`
	Data   struct {
		Submission SubmissionDTO `json:"submission"`
		Finalized  bool          `json:"finalized"`
		BatchID    string        `json:"batch_id,omitempty"`
	} `json:"data"`
}

type ConsensusStatusResponse struct {
	Status string `json:"status"`
	Data   struct {
		ClaimID          string             `json:"claim_id"`
		SubmissionCounts map[string]int     `json:"submission_counts"`
		AcceptedCounts   map[string]int     `json:"accepted_counts"`
		MinimumCounts    map[string]int     `json:"minimum_counts"`
		Weights          map[string]float64 `json:"weights"`
		Threshold        float64            `json:"threshold"`
		Finalized        bool               `json:"finalized"`
		IssuedQuantity   float64            `json:"issued_quantity"`
		BatchID          string             `json:"batch_id,omitempty"`
		FinalizedAt      string             `json:"finalized_at,omitempty"`
	} `json:"data"`
}

type RegisterClaimResponse struct {
	Status string `json:"status"`
}
