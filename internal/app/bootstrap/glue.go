package bootstrap

import (
	"context"
	"errors"

	ledgerapp "bluecarbon/contexts/credit-registry/credit-ledger/application"
	paymentapp "bluecarbon/contexts/finance-core/payment-distributor/application"
	paymenterrors "bluecarbon/contexts/finance-core/payment-distributor/domain/errors"
	settlementports "bluecarbon/contexts/finance-core/settlement-service/ports"
	policyapp "bluecarbon/contexts/identity-access/access-policy-service/application"
	policyentities "bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	verifierports "bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

// Cross-context ports live here so the modules themselves never import each
// other. Each adapter wraps another module's application service in process.

// ledgerIssuer mints credit batches for finalized claims.
type ledgerIssuer struct {
	ledger ledgerapp.Service
}

var _ verifierports.CreditIssuer = ledgerIssuer{}

func (i ledgerIssuer) IssueBatch(ctx context.Context, input verifierports.IssueBatchInput) (string, error) {
	batch, err := i.ledger.IssueBatch(ctx, ledgerapp.IssueBatchInput{
		ClaimID:     input.ClaimID,
		Quantity:    input.Quantity,
		Vintage:     input.Vintage,
		Standard:    input.Standard,
		Beneficiary: input.Beneficiary,
	})
	if err != nil {
		return "", err
	}
	return batch.BatchID, nil
}

// policyGate answers the verifier's role checks from the access policy module.
type policyGate struct {
	policy policyapp.Service
}

var _ verifierports.AccessPolicy = policyGate{}

func (g policyGate) IsVerifier(ctx context.Context, identity string) (bool, error) {
	return g.policy.HasRole(ctx, identity, policyentities.RoleVerifier)
}

// ledgerMover exposes the ledger surface settlement needs for a sale.
type ledgerMover struct {
	ledger ledgerapp.Service
}

var _ settlementports.CreditMover = ledgerMover{}

func (m ledgerMover) OwnerBalance(ctx context.Context, identity string) (float64, error) {
	balance, err := m.ledger.GetBalance(ctx, identity)
	if err != nil {
		return 0, err
	}
	return balance.Quantity, nil
}

func (m ledgerMover) BatchRemainder(ctx context.Context, batchID string) (string, string, float64, error) {
	batch, err := m.ledger.GetBatch(ctx, batchID)
	if err != nil {
		return "", "", 0, err
	}
	return batch.ClaimID, batch.Owner, batch.RemainingQuantity(), nil
}

func (m ledgerMover) Transfer(ctx context.Context, from string, to string, quantity float64) error {
	return m.ledger.Transfer(ctx, ledgerapp.TransferInput{
		From:     from,
		To:       to,
		Quantity: quantity,
	})
}

// proceedsRouter routes sale proceeds through the payment distributor.
type proceedsRouter struct {
	payments paymentapp.Service
}

var _ settlementports.ProceedsDistributor = proceedsRouter{}

func (r proceedsRouter) HasSplit(ctx context.Context, claimID string) (bool, error) {
	_, err := r.payments.GetSplit(ctx, claimID)
	if err != nil {
		if errors.Is(err, paymenterrors.ErrSplitNotConfigured) || errors.Is(err, paymenterrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r proceedsRouter) Settle(ctx context.Context, input settlementports.SettleInput) (string, error) {
	record, err := r.payments.SettleSale(ctx, paymentapp.SettleSaleInput{
		ClaimID:    input.ClaimID,
		BatchID:    input.BatchID,
		Quantity:   input.Quantity,
		TotalPrice: input.NetAmount,
		Buyer:      input.Buyer,
		Seller:     input.Seller,
	})
	if err != nil {
		return "", err
	}
	return record.SaleID, nil
}

func (r proceedsRouter) AccrueFee(ctx context.Context, beneficiary string, amount int64, saleID string) error {
	return r.payments.AccruePlatformFee(ctx, beneficiary, amount, saleID)
}
