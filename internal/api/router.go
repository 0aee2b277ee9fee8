package api

import (
	"net/http"

	"github.com/qchaucoin/ledger/internal/auth"
	"github.com/qchaucoin/ledger/internal/handler"

	_ "github.com/qchaucoin/ledger/docs"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers. Account, transfer and history
// endpoints require a bearer token issued by issuer.
func SetupRouter(h *handler.CoinHandler, issuer *auth.Issuer) http.Handler {
	mux := http.NewServeMux()
	requireAuth := auth.Middleware(issuer, h.WriteError)

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints
	mux.HandleFunc("/auth/register", h.Register)
	mux.HandleFunc("/auth/login", h.Login)

	// Account endpoints
	mux.Handle("/account", requireAuth(http.HandlerFunc(h.Account)))
	mux.HandleFunc("/balance", h.Balance)

	// Transfer endpoints
	mux.Handle("/transfer", requireAuth(http.HandlerFunc(h.Transfer)))
	mux.Handle("/transactions", requireAuth(http.HandlerFunc(h.TransactionHistory)))

	// Chain endpoints
	mux.HandleFunc("/chain", h.Chain)
	mux.HandleFunc("/chain/verify", h.VerifyChain)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(mux)
}
