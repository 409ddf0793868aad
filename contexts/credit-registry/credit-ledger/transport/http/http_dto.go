package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RetireRequest struct {
	BatchID  string  `json:"batch_id"`
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
}

type TransferRequest struct {
	To       string  `json:"to"`
	Quantity float64 `json:"quantity"`
}

type CreditBatchDTO struct {
	BatchID         string  `json:"batch_id"`
	ClaimID         string  `json:"claim_id"`
	Quantity        float64 `json:"quantity"`
	RetiredQuantity float64 `json:"retired_quantity"`
	Vintage         string  `json:"vintage"`
	Standard        string  `json:"standard"`
	Owner           string  `json:"owner"`
	Retired         bool    `json:"retired"`
	CreatedAt       string  `json:"created_at"`
}

type CreditBatchResponse struct {
	Status string         `json:"status"`
	Data   CreditBatchDTO `json:"data"`
}

type CreditBatchListResponse struct {
	Status string           `json:"status"`
	Data   []CreditBatchDTO `json:"data"`
}

type RetirementDTO struct {
	RetirementID string  `json:"retirement_id"`
	BatchID      string  `json:"batch_id"`
	Quantity     float64 `json:"quantity"`
	Reason       string  `json:"reason"`
	Retiree      string  `json:"retiree"`
	CreatedAt    string  `json:"created_at"`
}

type RetirementResponse struct {
	Status string        `json:"status"`
	Data   RetirementDTO `json:"data"`
}

type RetirementListResponse struct {
	Status string          `json:"status"`
	Data   []RetirementDTO `json:"data"`
}

type BalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Identity string  `json:"identity"`
		Quantity float64 `json:"quantity"`
	} `json:"data"`
}

type GlobalStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Issued      float64 `json:"issued"`
		Retired     float64 `json:"retired"`
		Circulating float64 `json:"circulating"`
	} `json:"data"`
}

type TransferResponse struct {
	Status string `json:"status"`
}
