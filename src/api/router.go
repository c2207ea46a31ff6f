package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	"finance-app-server/src/config"
	"finance-app-server/src/feed"
	"finance-app-server/src/handlers"
	"finance-app-server/src/llm"
	"finance-app-server/src/middleware"
	syncer "finance-app-server/src/sync"
)

func NewRouter(pool *pgxpool.Pool, cfg *config.Config, feedClient feed.Client, plaidAPI *plaid.APIClient, engine *syncer.Engine, llmClient *llm.Client) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.DemoModeMiddleware(cfg.IsDemo))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", handlers.Register(pool, cfg.JWTSecret))
		r.Post("/auth/login", handlers.Login(pool, cfg.JWTSecret))
		r.Post("/plaid/webhook", handlers.PlaidWebhook(plaidAPI, engine, cfg))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.TestAuthBypass))

			r.Get("/auth/me", handlers.Me(pool))

			r.Get("/accounts", handlers.GetAccounts(pool))
			r.Get("/accounts/{account_id}", handlers.GetAccountByID(pool))

			// Stats routes must be registered before the id param route.
			r.Get("/transactions", handlers.GetTransactions(pool))
			r.Get("/transactions/stats/monthly", handlers.GetMonthlyStats(pool))
			r.Get("/transactions/stats/by-category", handlers.GetSpendingByCategory(pool))
			r.Get("/transactions/{transaction_id}", handlers.GetTransactionByID(pool))
			r.Patch("/transactions/{transaction_id}/category", handlers.UpdateTransactionCategory(pool))

			r.Get("/plaid/create-link-token", handlers.CreateLinkToken(feedClient))
			r.Post("/plaid/exchange-public-token", handlers.ExchangePublicToken(feedClient, pool, engine))
			r.Post("/plaid/sync-transactions", handlers.SyncTransactions(engine))

			r.Post("/budgets", handlers.CreateBudget(pool))
			r.Get("/budgets", handlers.GetBudgets(pool))
			r.Get("/budgets/{budget_id}", handlers.GetBudgetByID(pool))
			r.Put("/budgets/{budget_id}", handlers.UpdateBudget(pool))
			r.Delete("/budgets/{budget_id}", handlers.DeleteBudget(pool))

			r.Post("/assets", handlers.CreateAsset(pool))
			r.Get("/assets", handlers.GetAssets(pool))
			r.Get("/assets/{asset_id}", handlers.GetAssetByID(pool))
			r.Put("/assets/{asset_id}", handlers.UpdateAsset(pool))
			r.Delete("/assets/{asset_id}", handlers.DeleteAsset(pool))

			r.Get("/categories", handlers.GetCategories())
			r.Get("/summary", handlers.GetSummary(pool))
			r.Post("/chat", handlers.Chat(pool, llmClient))
		})
	})

	return r
}
