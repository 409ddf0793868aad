package application

import (
	"context"
	"errors"
	"testing"

	"bluecarbon/contexts/finance-core/payment-distributor/adapters/memory"
	"bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	domainerrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
)

func newService() (Service, *memory.Store) {
	store := memory.NewStore()
	return Service{
		Repo:   store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
	}, store
}

func configureTestSplit(t *testing.T, service Service) entities.PayoutSplit {
	t.Helper()
	split, err := service.ConfigureSplit(context.Background(), ConfigureSplitInput{
		ClaimID: "claim-1",
		Allocations: []entities.Allocation{
			{Role: entities.RoleCommunity, Beneficiary: "community-dao", BasisPoints: 4000},
			{Role: entities.RolePartner, Beneficiary: "ngo-partner", BasisPoints: 1500},
			{Role: entities.RoleVerifier, Beneficiary: "verifier-pool", BasisPoints: 500},
		},
		PlatformBeneficiary: "platform-treasury",
		PlatformBasisPoints: 250,
	})
	if err != nil {
		t.Fatalf("configure split: %v", err)
	}
	return split
}

func TestConfigureSplitRejectsOverallocation(t *testing.T) {
	service, _ := newService()

	_, err := service.ConfigureSplit(context.Background(), ConfigureSplitInput{
		ClaimID: "claim-1",
		Allocations: []entities.Allocation{
			{Role: entities.RoleCommunity, Beneficiary: "community-dao", BasisPoints: 9000},
		},
		PlatformBeneficiary: "platform-treasury",
		PlatformBasisPoints: 1500,
	})
	if !errors.Is(err, domainerrors.ErrSplitExceedsWhole) {
		t.Fatalf("expected ErrSplitExceedsWhole, got %v", err)
	}
}

func TestConfigureSplitRejectsInvalidAllocation(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	cases := []ConfigureSplitInput{
		{
			ClaimID:             "claim-1",
			Allocations:         []entities.Allocation{{Role: "landlord", Beneficiary: "x", BasisPoints: 100}},
			PlatformBeneficiary: "platform-treasury",
		},
		{
			ClaimID:             "claim-1",
			Allocations:         []entities.Allocation{{Role: entities.RoleCommunity, Beneficiary: "", BasisPoints: 100}},
			PlatformBeneficiary: "platform-treasury",
		},
		{
			ClaimID:             "claim-1",
			Allocations:         []entities.Allocation{{Role: entities.RoleCommunity, Beneficiary: "x", BasisPoints: 0}},
			PlatformBeneficiary: "platform-treasury",
		},
		{
			ClaimID:     "claim-1",
			Allocations: []entities.Allocation{{Role: entities.RoleCommunity, Beneficiary: "x", BasisPoints: 100}},
		},
	}
	for i, input := range cases {
		if _, err := service.ConfigureSplit(ctx, input); !errors.Is(err, domainerrors.ErrInvalidSplit) {
			t.Fatalf("case %d: expected ErrInvalidSplit, got %v", i, err)
		}
	}
}

func TestSettleSaleDistributesWholePrice(t *testing.T) {
	service, store := newService()
	ctx := context.Background()
	configureTestSplit(t, service)

	sale, err := service.SettleSale(ctx, SettleSaleInput{
		ClaimID:    "claim-1",
		BatchID:    "batch-1",
		Quantity:   10,
		TotalPrice: 100_001,
		Buyer:      "buyer",
		Seller:     "seller",
	})
	if err != nil {
		t.Fatalf("settle sale: %v", err)
	}
	if !sale.Distributed {
		t.Fatalf("expected sale marked distributed")
	}

	beneficiaries := []string{"community-dao", "ngo-partner", "verifier-pool", "seller", "platform-treasury"}
	var total int64
	amounts := make(map[string]int64, len(beneficiaries))
	for _, beneficiary := range beneficiaries {
		pending, err := store.GetPending(ctx, beneficiary)
		if err != nil {
			t.Fatalf("pending %s: %v", beneficiary, err)
		}
		amounts[beneficiary] = pending.Amount
		total += pending.Amount
	}

	// every minor unit of the price lands somewhere
	if total != 100_001 {
		t.Fatalf("distribution must conserve the price, got %d", total)
	}
	if amounts["community-dao"] != 40_000 {
		t.Fatalf("expected community share 40000, got %d", amounts["community-dao"])
	}
	if amounts["ngo-partner"] != 15_000 {
		t.Fatalf("expected partner share 15000, got %d", amounts["ngo-partner"])
	}
	if amounts["verifier-pool"] != 5_000 {
		t.Fatalf("expected verifier share 5000, got %d", amounts["verifier-pool"])
	}
	// seller takes the unallocated 3750 bp share, floored
	if amounts["seller"] != 37_500 {
		t.Fatalf("expected seller share 37500, got %d", amounts["seller"])
	}
	// platform takes its own 250 bp plus the flooring dust
	if amounts["platform-treasury"] != 2_501 {
		t.Fatalf("expected platform share 2501, got %d", amounts["platform-treasury"])
	}
}

func TestSettleSaleRequiresConfiguredSplit(t *testing.T) {
	service, _ := newService()

	_, err := service.SettleSale(context.Background(), SettleSaleInput{
		ClaimID:    "claim-1",
		BatchID:    "batch-1",
		Quantity:   10,
		TotalPrice: 1000,
		Buyer:      "buyer",
		Seller:     "seller",
	})
	if !errors.Is(err, domainerrors.ErrSplitNotConfigured) {
		t.Fatalf("expected ErrSplitNotConfigured, got %v", err)
	}
}

func TestWithdrawZeroesPendingExactlyOnce(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	configureTestSplit(t, service)

	if _, err := service.SettleSale(ctx, SettleSaleInput{
		ClaimID:    "claim-1",
		BatchID:    "batch-1",
		Quantity:   10,
		TotalPrice: 10_000,
		Buyer:      "buyer",
		Seller:     "seller",
	}); err != nil {
		t.Fatalf("settle sale: %v", err)
	}

	amount, err := service.Withdraw(ctx, "community-dao")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount != 4_000 {
		t.Fatalf("expected withdrawal of 4000, got %d", amount)
	}

	if _, err := service.Withdraw(ctx, "community-dao"); !errors.Is(err, domainerrors.ErrNothingToWithdraw) {
		t.Fatalf("expected ErrNothingToWithdraw on second withdrawal, got %v", err)
	}

	pending, err := service.GetPending(ctx, "community-dao")
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending.Amount != 0 {
		t.Fatalf("expected zero pending after withdrawal, got %d", pending.Amount)
	}
}

func TestAccruePlatformFeeAddsToPending(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	if err := service.AccruePlatformFee(ctx, "platform-treasury", 250, "sale-1"); err != nil {
		t.Fatalf("accrue fee: %v", err)
	}
	if err := service.AccruePlatformFee(ctx, "platform-treasury", 150, "sale-2"); err != nil {
		t.Fatalf("accrue fee: %v", err)
	}

	pending, err := service.GetPending(ctx, "platform-treasury")
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending.Amount != 400 {
		t.Fatalf("expected 400 pending, got %d", pending.Amount)
	}

	if err := service.AccruePlatformFee(ctx, "platform-treasury", 0, "sale-3"); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
