package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateListingRequest struct {
	BatchID      string  `json:"batch_id"`
	Quantity     float64 `json:"quantity"`
	PricePerUnit int64   `json:"price_per_unit"`
	ExpiresAt    string  `json:"expires_at"`
}

type ExecuteSaleRequest struct {
	Quantity float64 `json:"quantity"`
	Payment  int64   `json:"payment"`
}

type UpdatePriceRequest struct {
	PricePerUnit int64 `json:"price_per_unit"`
}

type ListingDTO struct {
	ListingID         string  `json:"listing_id"`
	BatchID           string  `json:"batch_id"`
	ClaimID           string  `json:"claim_id"`
	Seller            string  `json:"seller"`
	Quantity          float64 `json:"quantity"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	PricePerUnit      int64   `json:"price_per_unit"`
	Status            string  `json:"status"`
	ExpiresAt         string  `json:"expires_at"`
	CreatedAt         string  `json:"created_at"`
}

type ListingResponse struct {
	Status string     `json:"status"`
	Data   ListingDTO `json:"data"`
}

type ListingListResponse struct {
	Status string       `json:"status"`
	Data   []ListingDTO `json:"data"`
}

type MarketSaleDTO struct {
	SaleID     string  `json:"sale_id"`
	ListingID  string  `json:"listing_id"`
	BatchID    string  `json:"batch_id"`
	ClaimID    string  `json:"claim_id"`
	Buyer      string  `json:"buyer"`
	Seller     string  `json:"seller"`
	Quantity   float64 `json:"quantity"`
	TotalPrice int64   `json:"total_price"`
	Fee        int64   `json:"fee"`
	NetAmount  int64   `json:"net_amount"`
	Refund     int64   `json:"refund"`
	CreatedAt  string  `json:"created_at"`
}

type SaleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Sale    MarketSaleDTO `json:"sale"`
		Listing ListingDTO    `json:"listing"`
	} `json:"data"`
}

type SaleListResponse struct {
	Status string          `json:"status"`
	Data   []MarketSaleDTO `json:"data"`
}
