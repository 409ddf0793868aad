package bootstrap

import (
	"context"
	"testing"
	"time"

	ledgerapp "bluecarbon/contexts/credit-registry/credit-ledger/application"
	paymentapp "bluecarbon/contexts/finance-core/payment-distributor/application"
	paymententities "bluecarbon/contexts/finance-core/payment-distributor/domain/entities"
	settlementapp "bluecarbon/contexts/finance-core/settlement-service/application"
	policyapp "bluecarbon/contexts/identity-access/access-policy-service/application"
	policyentities "bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	verifiercommands "bluecarbon/contexts/verification-core/consensus-verifier/application/commands"
	verifierentities "bluecarbon/contexts/verification-core/consensus-verifier/domain/entities"
)

// seedAdmin plants the bootstrap admin grant directly in the policy store so
// the pipeline can grant roles through the service like production would.
func seedAdmin(t *testing.T, core Core) {
	t.Helper()
	err := core.Policy.Store.SaveGrant(context.Background(), policyentities.RoleGrant{
		GrantID:   "grant-bootstrap-admin",
		Identity:  "root",
		Role:      policyentities.RoleAdmin,
		GrantedBy: "root",
	})
	if err != nil {
		t.Fatalf("seed admin grant: %v", err)
	}
}

// TestInMemoryPipelineMintsSellsAndDistributes walks the whole wired core:
// role grant, claim registration, evidence consensus, batch minting, split
// configuration, listing, sale, payout distribution, and retirement.
func TestInMemoryPipelineMintsSellsAndDistributes(t *testing.T) {
	ctx := context.Background()
	core := BuildInMemoryCore(250, "platform-treasury", nil)
	seedAdmin(t, core)

	if _, err := core.Policy.Service.GrantRole(ctx, policyapp.GrantRoleInput{
		Identity: "vera",
		Role:     policyentities.RoleVerifier,
		ActorID:  "root",
	}); err != nil {
		t.Fatalf("grant verifier role: %v", err)
	}

	if err := core.Verifier.Evidence.RegisterClaim(ctx, verifiercommands.RegisterClaimCommand{
		ClaimID: "claim-1",
		MinimumCounts: map[verifierentities.SourceKind]int{
			verifierentities.SourceCommunity: 1,
		},
		Weights: map[verifierentities.SourceKind]float64{
			verifierentities.SourceCommunity: 1,
		},
		Threshold:   1,
		Beneficiary: "community-dao",
		Vintage:     "2026",
		Standard:    "vcs",
	}); err != nil {
		t.Fatalf("register claim: %v", err)
	}

	submission, err := core.Verifier.Evidence.Submit(ctx, verifiercommands.SubmitEvidenceCommand{
		ClaimID:         "claim-1",
		SourceKind:      verifierentities.SourceCommunity,
		ContentRef:      "ipfs://survey-2026",
		ClaimedQuantity: 80,
		Submitter:       "sam",
	})
	if err != nil {
		t.Fatalf("submit evidence: %v", err)
	}

	decision, err := core.Verifier.Evidence.Decide(ctx, verifiercommands.DecideEvidenceCommand{
		SubmissionID: submission.SubmissionID,
		Accept:       true,
		VerifierID:   "vera",
	})
	if err != nil {
		t.Fatalf("decide evidence: %v", err)
	}
	if !decision.Finalized {
		t.Fatal("expected consensus to finalize")
	}
	if decision.Consensus.BatchID == "" {
		t.Fatal("expected a minted batch id on finalization")
	}
	if decision.Consensus.IssuedQuantity != 80 {
		t.Fatalf("expected issued quantity 80, got %v", decision.Consensus.IssuedQuantity)
	}

	balance, err := core.Ledger.Service.GetBalance(ctx, "community-dao")
	if err != nil {
		t.Fatalf("get beneficiary balance: %v", err)
	}
	if balance.Quantity != 80 {
		t.Fatalf("expected beneficiary to hold 80 credits, got %v", balance.Quantity)
	}

	if _, err := core.Payments.Service.ConfigureSplit(ctx, paymentapp.ConfigureSplitInput{
		ClaimID: "claim-1",
		Allocations: []paymententities.Allocation{
			{Role: paymententities.RoleCommunity, Beneficiary: "village-fund", BasisPoints: 4000},
		},
		PlatformBeneficiary: "platform-treasury",
		PlatformBasisPoints: 250,
	}); err != nil {
		t.Fatalf("configure split: %v", err)
	}

	listing, err := core.Market.Service.CreateListing(ctx, settlementapp.CreateListingInput{
		BatchID:      decision.Consensus.BatchID,
		Quantity:     50,
		PricePerUnit: 100,
		ExpiresAt:    time.Now().UTC().Add(48 * time.Hour),
		Seller:       "community-dao",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	result, err := core.Market.Service.ExecuteSale(ctx, settlementapp.ExecuteSaleInput{
		ListingID: listing.ListingID,
		Quantity:  50,
		Payment:   5_000,
		Buyer:     "bob",
	})
	if err != nil {
		t.Fatalf("execute sale: %v", err)
	}
	if result.Sale.TotalPrice != 5_000 || result.Sale.Fee != 125 || result.Sale.NetAmount != 4_875 {
		t.Fatalf("unexpected sale money: total=%d fee=%d net=%d",
			result.Sale.TotalPrice, result.Sale.Fee, result.Sale.NetAmount)
	}

	// Payouts on the post-fee 4875: 40% to the community allocation, the
	// unallocated 57.5% to the seller, the platform keeps its own cut plus
	// the carved-out fee.
	villageFund, err := core.Payments.Service.GetPending(ctx, "village-fund")
	if err != nil {
		t.Fatalf("get village-fund pending: %v", err)
	}
	if villageFund.Amount != 1_950 {
		t.Fatalf("expected village-fund pending 1950, got %d", villageFund.Amount)
	}
	seller, err := core.Payments.Service.GetPending(ctx, "community-dao")
	if err != nil {
		t.Fatalf("get seller pending: %v", err)
	}
	if seller.Amount != 2_803 {
		t.Fatalf("expected seller pending 2803, got %d", seller.Amount)
	}
	platform, err := core.Payments.Service.GetPending(ctx, "platform-treasury")
	if err != nil {
		t.Fatalf("get platform pending: %v", err)
	}
	if platform.Amount != 122+125 {
		t.Fatalf("expected platform pending 247, got %d", platform.Amount)
	}
	if villageFund.Amount+seller.Amount+(platform.Amount-125) != result.Sale.NetAmount {
		t.Fatalf("distributed payouts %d do not sum to net amount %d",
			villageFund.Amount+seller.Amount+platform.Amount-125, result.Sale.NetAmount)
	}

	if _, err := core.Ledger.Service.Retire(ctx, ledgerapp.RetireInput{
		BatchID:  decision.Consensus.BatchID,
		Quantity: 20,
		Reason:   "offset report 2026",
		Caller:   "bob",
	}); err != nil {
		t.Fatalf("retire credits: %v", err)
	}

	sellerBalance, err := core.Ledger.Service.GetBalance(ctx, "community-dao")
	if err != nil {
		t.Fatalf("get seller balance: %v", err)
	}
	buyerBalance, err := core.Ledger.Service.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("get buyer balance: %v", err)
	}
	stats, err := core.Ledger.Service.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("global stats: %v", err)
	}
	if sellerBalance.Quantity != 30 || buyerBalance.Quantity != 30 {
		t.Fatalf("expected balances 30/30 after sale and retirement, got %v/%v",
			sellerBalance.Quantity, buyerBalance.Quantity)
	}
	if stats.Issued != 80 || stats.Retired != 20 {
		t.Fatalf("expected issued 80 retired 20, got %+v", stats)
	}
	if sellerBalance.Quantity+buyerBalance.Quantity+stats.Retired != stats.Issued {
		t.Fatalf("conservation broken: %v + %v + %v != %v",
			sellerBalance.Quantity, buyerBalance.Quantity, stats.Retired, stats.Issued)
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9000":  ":9000",
		":9000": ":9000",
		" 8081": ":8081",
	}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}
