package entities

import "time"

// ListingStatus is the lifecycle state of a listing. Active is the only
// non-terminal state; sold out, cancelled and expired are all final.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSoldOut   ListingStatus = "sold_out"
	ListingCancelled ListingStatus = "cancelled"
	ListingExpired   ListingStatus = "expired"
)

// MaxListingLifetime bounds how far ahead a listing may expire.
const MaxListingLifetime = 90 * 24 * time.Hour

// Listing offers part of a credit batch for sale. Only the price is mutable
// while active; quantity decrements happen through sales.
type Listing struct {
	ListingID         string
	BatchID           string
	ClaimID           string
	Seller            string
	Quantity          float64
	RemainingQuantity float64
	PricePerUnit      int64
	Status            ListingStatus
	ExpiresAt         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ExpiredAt reports whether the listing's expiry has passed at the given
// instant. Expiry is evaluated lazily, there is no active timer.
func (l Listing) ExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// MarketSale records one executed sale against a listing. The distributor
// owns the money flow; this record ties it back to the listing.
type MarketSale struct {
	SaleID     string
	ListingID  string
	BatchID    string
	ClaimID    string
	Buyer      string
	Seller     string
	Quantity   float64
	TotalPrice int64
	Fee        int64
	NetAmount  int64
	Refund     int64
	CreatedAt  time.Time
}
