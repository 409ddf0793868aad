package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bluecarbon/contexts/finance-core/settlement-service/adapters/memory"
	"bluecarbon/contexts/finance-core/settlement-service/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/settlement-service/domain/errors"
	"bluecarbon/contexts/finance-core/settlement-service/ports"
)

type transferCall struct {
	from     string
	to       string
	quantity float64
}

type stubLedger struct {
	claimID      string
	owner        string
	remainder    float64
	balances     map[string]float64
	transfers    []transferCall
	failTransfer bool
}

func (l *stubLedger) OwnerBalance(_ context.Context, identity string) (float64, error) {
	return l.balances[identity], nil
}

func (l *stubLedger) BatchRemainder(_ context.Context, _ string) (string, string, float64, error) {
	return l.claimID, l.owner, l.remainder, nil
}

func (l *stubLedger) Transfer(_ context.Context, from string, to string, quantity float64) error {
	if l.failTransfer {
		return errors.New("ledger unavailable")
	}
	l.transfers = append(l.transfers, transferCall{from: from, to: to, quantity: quantity})
	return nil
}

type feeCall struct {
	beneficiary string
	amount      int64
	saleID      string
}

type stubDistributor struct {
	hasSplit   bool
	failSettle bool
	settles    []ports.SettleInput
	fees       []feeCall
}

func (d *stubDistributor) HasSplit(_ context.Context, _ string) (bool, error) {
	return d.hasSplit, nil
}

func (d *stubDistributor) Settle(_ context.Context, input ports.SettleInput) (string, error) {
	if d.failSettle {
		return "", errors.New("settlement store down")
	}
	d.settles = append(d.settles, input)
	return fmt.Sprintf("sale-%d", len(d.settles)), nil
}

func (d *stubDistributor) AccrueFee(_ context.Context, beneficiary string, amount int64, saleID string) error {
	d.fees = append(d.fees, feeCall{beneficiary: beneficiary, amount: amount, saleID: saleID})
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newMarket() (Service, *stubLedger, *stubDistributor, *fakeClock) {
	store := memory.NewStore()
	ledger := &stubLedger{
		claimID:   "claim-1",
		owner:     "alice",
		remainder: 100,
		balances:  map[string]float64{"alice": 100},
	}
	distributor := &stubDistributor{hasSplit: true}
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	service := Service{
		Listings:        store,
		Credits:         ledger,
		Distributor:     distributor,
		Outbox:          store,
		Clock:           clock,
		IDGen:           store,
		FeeBasisPoints:  250,
		PlatformAccount: "platform-treasury",
	}
	return service, ledger, distributor, clock
}

func mustCreateListing(t *testing.T, service Service, clock *fakeClock, quantity float64, pricePerUnit int64) entities.Listing {
	t.Helper()
	listing, err := service.CreateListing(context.Background(), CreateListingInput{
		BatchID:      "batch-1",
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		ExpiresAt:    clock.now.Add(48 * time.Hour),
		Seller:       "alice",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return listing
}

func TestCreateListingValidatesOwnershipAndBounds(t *testing.T) {
	service, ledger, _, clock := newMarket()
	ctx := context.Background()

	base := CreateListingInput{
		BatchID:      "batch-1",
		Quantity:     50,
		PricePerUnit: 500,
		ExpiresAt:    clock.now.Add(48 * time.Hour),
		Seller:       "alice",
	}

	notOwner := base
	notOwner.Seller = "bob"
	if _, err := service.CreateListing(ctx, notOwner); !errors.Is(err, domainerrors.ErrNotSeller) {
		t.Fatalf("expected ErrNotSeller for non-owner, got %v", err)
	}

	tooMany := base
	tooMany.Quantity = 150
	if _, err := service.CreateListing(ctx, tooMany); !errors.Is(err, domainerrors.ErrQuantityExceeds) {
		t.Fatalf("expected ErrQuantityExceeds, got %v", err)
	}

	ledger.balances["alice"] = 40
	if _, err := service.CreateListing(ctx, base); !errors.Is(err, domainerrors.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	ledger.balances["alice"] = 100

	past := base
	past.ExpiresAt = clock.now.Add(-time.Hour)
	if _, err := service.CreateListing(ctx, past); !errors.Is(err, domainerrors.ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry for past expiry, got %v", err)
	}

	tooFar := base
	tooFar.ExpiresAt = clock.now.Add(entities.MaxListingLifetime + time.Hour)
	if _, err := service.CreateListing(ctx, tooFar); !errors.Is(err, domainerrors.ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry beyond the lifetime cap, got %v", err)
	}

	listing, err := service.CreateListing(ctx, base)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if listing.Status != entities.ListingActive {
		t.Fatalf("expected active listing, got %s", listing.Status)
	}
	if listing.RemainingQuantity != listing.Quantity {
		t.Fatalf("expected full remainder, got %v of %v", listing.RemainingQuantity, listing.Quantity)
	}
	if listing.ClaimID != "claim-1" {
		t.Fatalf("expected claim from the batch, got %q", listing.ClaimID)
	}
}

func TestExecuteSaleMovesCreditsAndSettlesProceeds(t *testing.T) {
	service, ledger, distributor, clock := newMarket()
	listing := mustCreateListing(t, service, clock, 10, 500)

	result, err := service.ExecuteSale(context.Background(), ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  10,
		Payment:   6_000,
		Buyer:     "bob",
	})
	if err != nil {
		t.Fatalf("execute sale: %v", err)
	}

	sale := result.Sale
	if sale.TotalPrice != 5_000 {
		t.Fatalf("expected total price 5000, got %d", sale.TotalPrice)
	}
	if sale.Fee != 125 {
		t.Fatalf("expected fee 125 at 250 basis points, got %d", sale.Fee)
	}
	if sale.NetAmount != 4_875 {
		t.Fatalf("expected net amount 4875, got %d", sale.NetAmount)
	}
	if sale.Refund != 1_000 {
		t.Fatalf("expected refund 1000, got %d", sale.Refund)
	}
	if result.Listing.Status != entities.ListingSoldOut {
		t.Fatalf("expected sold_out listing, got %s", result.Listing.Status)
	}

	if len(ledger.transfers) != 1 {
		t.Fatalf("expected one credit transfer, got %d", len(ledger.transfers))
	}
	moved := ledger.transfers[0]
	if moved.from != "alice" || moved.to != "bob" || moved.quantity != 10 {
		t.Fatalf("unexpected transfer %+v", moved)
	}

	if len(distributor.settles) != 1 {
		t.Fatalf("expected one settlement, got %d", len(distributor.settles))
	}
	settled := distributor.settles[0]
	if settled.NetAmount != 4_875 || settled.Buyer != "bob" || settled.Seller != "alice" {
		t.Fatalf("unexpected settlement input %+v", settled)
	}

	if len(distributor.fees) != 1 {
		t.Fatalf("expected one fee accrual, got %d", len(distributor.fees))
	}
	fee := distributor.fees[0]
	if fee.beneficiary != "platform-treasury" || fee.amount != 125 || fee.saleID != sale.SaleID {
		t.Fatalf("unexpected fee accrual %+v", fee)
	}
}

func TestExecuteSalePartialQuantityKeepsListingActive(t *testing.T) {
	service, _, _, clock := newMarket()
	listing := mustCreateListing(t, service, clock, 10, 500)

	result, err := service.ExecuteSale(context.Background(), ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  4,
		Payment:   2_000,
		Buyer:     "bob",
	})
	if err != nil {
		t.Fatalf("execute sale: %v", err)
	}
	if result.Listing.Status != entities.ListingActive {
		t.Fatalf("expected listing still active, got %s", result.Listing.Status)
	}
	if result.Listing.RemainingQuantity != 6 {
		t.Fatalf("expected remainder 6, got %v", result.Listing.RemainingQuantity)
	}
}

func TestExecuteSaleRejectsBeforeAnySideEffect(t *testing.T) {
	service, ledger, distributor, clock := newMarket()
	listing := mustCreateListing(t, service, clock, 10, 500)
	ctx := context.Background()

	if _, err := service.ExecuteSale(ctx, ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  10,
		Payment:   4_999,
		Buyer:     "bob",
	}); !errors.Is(err, domainerrors.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}

	if _, err := service.ExecuteSale(ctx, ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  10,
		Payment:   5_000,
		Buyer:     "Alice",
	}); !errors.Is(err, domainerrors.ErrSelfPurchase) {
		t.Fatalf("expected ErrSelfPurchase for the seller, got %v", err)
	}

	distributor.hasSplit = false
	if _, err := service.ExecuteSale(ctx, ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  10,
		Payment:   5_000,
		Buyer:     "bob",
	}); !errors.Is(err, domainerrors.ErrSplitNotConfigured) {
		t.Fatalf("expected ErrSplitNotConfigured, got %v", err)
	}

	if len(ledger.transfers) != 0 {
		t.Fatalf("expected no credit movement on rejected sales, got %d transfers", len(ledger.transfers))
	}

	got, err := service.GetListing(ctx, listing.ListingID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.RemainingQuantity != 10 || got.Status != entities.ListingActive {
		t.Fatalf("expected untouched listing, got status=%s remainder=%v", got.Status, got.RemainingQuantity)
	}
}

func TestExecuteSaleCompensatesWhenSettlementFails(t *testing.T) {
	service, ledger, distributor, clock := newMarket()
	listing := mustCreateListing(t, service, clock, 10, 500)
	distributor.failSettle = true

	_, err := service.ExecuteSale(context.Background(), ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  10,
		Payment:   5_000,
		Buyer:     "bob",
	})
	if err == nil {
		t.Fatal("expected sale to fail when settlement fails")
	}

	if len(ledger.transfers) != 2 {
		t.Fatalf("expected the transfer and its unwind, got %d transfers", len(ledger.transfers))
	}
	unwind := ledger.transfers[1]
	if unwind.from != "bob" || unwind.to != "alice" || unwind.quantity != 10 {
		t.Fatalf("unexpected unwind transfer %+v", unwind)
	}

	got, err := service.GetListing(context.Background(), listing.ListingID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Status != entities.ListingActive || got.RemainingQuantity != 10 {
		t.Fatalf("expected restored listing, got status=%s remainder=%v", got.Status, got.RemainingQuantity)
	}
}

func TestListingMutationsAreSellerOnly(t *testing.T) {
	service, _, _, clock := newMarket()
	listing := mustCreateListing(t, service, clock, 10, 500)
	ctx := context.Background()

	if _, err := service.UpdateListingPrice(ctx, listing.ListingID, "bob", 750); !errors.Is(err, domainerrors.ErrNotSeller) {
		t.Fatalf("expected ErrNotSeller on price update, got %v", err)
	}
	if _, err := service.CancelListing(ctx, listing.ListingID, "bob"); !errors.Is(err, domainerrors.ErrNotSeller) {
		t.Fatalf("expected ErrNotSeller on cancel, got %v", err)
	}

	updated, err := service.UpdateListingPrice(ctx, listing.ListingID, "ALICE", 750)
	if err != nil {
		t.Fatalf("update price as seller: %v", err)
	}
	if updated.PricePerUnit != 750 {
		t.Fatalf("expected price 750, got %d", updated.PricePerUnit)
	}

	cancelled, err := service.CancelListing(ctx, listing.ListingID, "alice")
	if err != nil {
		t.Fatalf("cancel as seller: %v", err)
	}
	if cancelled.Status != entities.ListingCancelled {
		t.Fatalf("expected cancelled listing, got %s", cancelled.Status)
	}

	if _, err := service.UpdateListingPrice(ctx, listing.ListingID, "alice", 800); !errors.Is(err, domainerrors.ErrListingInactive) {
		t.Fatalf("expected ErrListingInactive after cancel, got %v", err)
	}
}

func TestExpiryIsAppliedLazilyOnRead(t *testing.T) {
	service, _, _, clock := newMarket()
	ctx := context.Background()
	listing, err := service.CreateListing(ctx, CreateListingInput{
		BatchID:      "batch-1",
		Quantity:     10,
		PricePerUnit: 500,
		ExpiresAt:    clock.now.Add(time.Hour),
		Seller:       "alice",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)

	got, err := service.GetListing(ctx, listing.ListingID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Status != entities.ListingExpired {
		t.Fatalf("expected expired listing on read, got %s", got.Status)
	}

	active, err := service.ListActiveByClaim(ctx, "claim-1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active listings after expiry, got %d", len(active))
	}

	if _, err := service.ExecuteSale(ctx, ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  1,
		Payment:   500,
		Buyer:     "bob",
	}); !errors.Is(err, domainerrors.ErrListingInactive) {
		t.Fatalf("expected ErrListingInactive for expired listing, got %v", err)
	}
}
