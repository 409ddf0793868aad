package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	creditledger "bluecarbon/contexts/credit-registry/credit-ledger"
	paymentdistributor "bluecarbon/contexts/finance-core/payment-distributor"
	settlementservice "bluecarbon/contexts/finance-core/settlement-service"
	accesspolicyservice "bluecarbon/contexts/identity-access/access-policy-service"
	consensusverifier "bluecarbon/contexts/verification-core/consensus-verifier"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "bluecarbon/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	verifier consensusverifier.Module
	ledger   creditledger.Module
	payments paymentdistributor.Module
	market   settlementservice.Module
	policy   accesspolicyservice.Module
}

func New(
	verifier consensusverifier.Module,
	ledger creditledger.Module,
	payments paymentdistributor.Module,
	market settlementservice.Module,
	policy accesspolicyservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		verifier: verifier,
		ledger:   ledger,
		payments: payments,
		market:   market,
		policy:   policy,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.registerVerificationRoutes()
	s.registerCreditRoutes()
	s.registerPaymentRoutes()
	s.registerMarketRoutes()
	s.registerPolicyRoutes()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// callerID resolves the authenticated caller forwarded by the edge gateway.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
