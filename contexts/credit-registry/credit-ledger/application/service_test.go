package application

import (
	"context"
	"errors"
	"testing"

	"bluecarbon/contexts/credit-registry/credit-ledger/adapters/memory"
	"bluecarbon/contexts/credit-registry/credit-ledger/domain/entities"
	domainerrors "bluecarbon/contexts/credit-registry/credit-ledger/domain/errors"
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

func issueTestBatch(t *testing.T, service Service, quantity float64, beneficiary string) entities.CreditBatch {
	t.Helper()
	batch, err := service.IssueBatch(context.Background(), IssueBatchInput{
		ClaimID:     "claim-1",
		Quantity:    quantity,
		Vintage:     "2026",
		Standard:    "vcs",
		Beneficiary: beneficiary,
	})
	if err != nil {
		t.Fatalf("issue batch: %v", err)
	}
	return batch
}

func TestLedgerConservation(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	batch := issueTestBatch(t, service, 100, "alice")

	if err := service.Transfer(ctx, TransferInput{From: "alice", To: "bob", Quantity: 30}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := service.Retire(ctx, RetireInput{
		BatchID:  batch.BatchID,
		Quantity: 20,
		Reason:   "offset 2026 emissions",
		Caller:   "bob",
	}); err != nil {
		t.Fatalf("retire: %v", err)
	}

	alice, err := service.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("balance alice: %v", err)
	}
	bob, err := service.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("balance bob: %v", err)
	}
	stats, err := service.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if alice.Quantity != 70 || bob.Quantity != 10 {
		t.Fatalf("unexpected balances alice=%v bob=%v", alice.Quantity, bob.Quantity)
	}
	if stats.Issued != 100 || stats.Retired != 20 {
		t.Fatalf("unexpected stats issued=%v retired=%v", stats.Issued, stats.Retired)
	}
	// sum(balances) + retired == issued
	if alice.Quantity+bob.Quantity+stats.Retired != stats.Issued {
		t.Fatalf("conservation violated: %v + %v + %v != %v",
			alice.Quantity, bob.Quantity, stats.Retired, stats.Issued)
	}
	if stats.Circulating() != 80 {
		t.Fatalf("expected 80 circulating, got %v", stats.Circulating())
	}
}

func TestRetireExceedingBatchRemainderRejected(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	batch := issueTestBatch(t, service, 50, "alice")

	if _, err := service.Retire(ctx, RetireInput{
		BatchID:  batch.BatchID,
		Quantity: 30,
		Reason:   "first tranche",
		Caller:   "alice",
	}); err != nil {
		t.Fatalf("first retire: %v", err)
	}

	_, err := service.Retire(ctx, RetireInput{
		BatchID:  batch.BatchID,
		Quantity: 30,
		Reason:   "second tranche",
		Caller:   "alice",
	})
	if !errors.Is(err, domainerrors.ErrRetirementExceeds) {
		t.Fatalf("expected ErrRetirementExceeds, got %v", err)
	}
}

func TestRetireRequiresReason(t *testing.T) {
	service, _ := newService()
	batch := issueTestBatch(t, service, 50, "alice")

	_, err := service.Retire(context.Background(), RetireInput{
		BatchID:  batch.BatchID,
		Quantity: 10,
		Caller:   "alice",
	})
	if !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestTransferRejectsSelfAndOverdraw(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	issueTestBatch(t, service, 50, "alice")

	if err := service.Transfer(ctx, TransferInput{From: "alice", To: "Alice", Quantity: 10}); !errors.Is(err, domainerrors.ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
	if err := service.Transfer(ctx, TransferInput{From: "alice", To: "bob", Quantity: 60}); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := service.Transfer(ctx, TransferInput{From: "alice", To: "bob", Quantity: 0}); !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestIssueBatchValidation(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	if _, err := service.IssueBatch(ctx, IssueBatchInput{ClaimID: "claim-1", Quantity: 0, Beneficiary: "alice"}); !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := service.IssueBatch(ctx, IssueBatchInput{ClaimID: "claim-1", Quantity: 10}); !errors.Is(err, domainerrors.ErrInvalidBeneficiary) {
		t.Fatalf("expected ErrInvalidBeneficiary, got %v", err)
	}
}
