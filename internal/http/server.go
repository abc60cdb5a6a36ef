// Package http wires the JSON API: routing, middleware chain, and graceful
// shutdown.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"hearth/internal/ai"
	hearthauth "hearth/internal/auth"
	"hearth/internal/config"
	"hearth/internal/log"
	authmw "hearth/internal/middleware/auth"
	"hearth/internal/middleware/ratelimit"
	"hearth/internal/middleware/security"
	"hearth/internal/middleware/trace"
	"hearth/internal/services"
	"hearth/internal/storage"
)

type Server struct {
	repo      *storage.Repository
	lifecycle *services.Lifecycle
	rename    *services.Rename
	reports   *services.Reports
	publisher services.EventPublisher
	aiClient  *ai.Client
	jwt       *hearthauth.JWTManager

	// Environment fallbacks for households that never set Ollama keys.
	ollamaURL   string
	ollamaModel string

	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(cfg *config.Config, repo *storage.Repository, lifecycle *services.Lifecycle, rename *services.Rename, reports *services.Reports, publisher services.EventPublisher) *Server {
	var jwtManager *hearthauth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = hearthauth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	}

	s := &Server{
		repo:      repo,
		lifecycle: lifecycle,
		rename:    rename,
		reports:   reports,
		publisher: publisher,
		aiClient:  ai.NewClient(),
		jwt:       jwtManager,

		ollamaURL:   cfg.OllamaURL,
		ollamaModel: cfg.OllamaModel,

		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:    trace.NewMiddleware(clientIP),
		logger:    log.With(log.ComponentHTTP),
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.buildHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // AI generation is slow
		IdleTimeout:  time.Minute,
	}
	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)

	mux.HandleFunc("GET /households", s.handleHouseholdList)
	mux.HandleFunc("POST /households", s.handleHouseholdCreate)
	mux.HandleFunc("POST /households/members", s.handleMemberAdd)

	mux.HandleFunc("GET /data", s.handleMonthData)
	mux.HandleFunc("POST /balance", s.handleBalance)
	mux.HandleFunc("POST /salary", s.handleSalary)
	mux.HandleFunc("POST /month/notes", s.handleMonthNotes)
	mux.HandleFunc("POST /month/init", s.handleMonthInit)
	mux.HandleFunc("POST /month/sync", s.handleMonthSync)
	mux.HandleFunc("DELETE /month", s.handleMonthDelete)

	mux.HandleFunc("POST /expenses", s.handleExpenseCreate)
	mux.HandleFunc("PUT /expenses/{id}", s.handleExpenseUpdate)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleExpenseDelete)
	mux.HandleFunc("POST /expenses/{id}/toggle", s.handleExpenseToggle)

	mux.HandleFunc("GET /templates", s.handleTemplateList)
	mux.HandleFunc("POST /templates", s.handleTemplateCreate)
	mux.HandleFunc("PUT /templates/{id}", s.handleTemplateUpdate)
	mux.HandleFunc("DELETE /templates/{id}", s.handleTemplateDelete)

	mux.HandleFunc("GET /settings", s.handleSettingsGet)
	mux.HandleFunc("POST /settings", s.handleSettingsSet)
	mux.HandleFunc("POST /settings/rename", s.handleSettingsRename)

	mux.HandleFunc("GET /savings/structure", s.handleSavingsStructure)
	mux.HandleFunc("POST /savings/accounts", s.handleSavingsAccountCreate)
	mux.HandleFunc("PUT /savings/accounts/{id}", s.handleSavingsAccountRename)
	mux.HandleFunc("DELETE /savings/accounts/{id}", s.handleSavingsAccountDelete)
	mux.HandleFunc("POST /savings/pots", s.handlePotCreate)
	mux.HandleFunc("PUT /savings/pots/{id}", s.handlePotUpdate)
	mux.HandleFunc("DELETE /savings/pots/{id}", s.handlePotDelete)

	mux.HandleFunc("GET /credit-cards", s.handleCardList)
	mux.HandleFunc("POST /credit-cards", s.handleCardCreate)
	mux.HandleFunc("PUT /credit-cards/{id}", s.handleCardUpdate)
	mux.HandleFunc("DELETE /credit-cards/{id}", s.handleCardDelete)
	mux.HandleFunc("GET /credit-cards/{id}/transactions", s.handleCardTransactionList)
	mux.HandleFunc("POST /credit-cards/{id}/transactions", s.handleCardTransactionCreate)
	mux.HandleFunc("POST /credit-cards/{id}/pay", s.handleCardPay)
	mux.HandleFunc("DELETE /cc-transactions/{id}", s.handleCardTransactionDelete)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	mux.HandleFunc("GET /birthdays", s.handleBirthdayList)
	mux.HandleFunc("POST /birthdays", s.handleBirthdayCreate)
	mux.HandleFunc("PUT /birthdays/{id}", s.handleBirthdayUpdate)
	mux.HandleFunc("DELETE /birthdays/{id}", s.handleBirthdayDelete)

	mux.HandleFunc("GET /meals", s.handleMealList)
	mux.HandleFunc("POST /meals", s.handleMealCreate)
	mux.HandleFunc("PUT /meals/{id}", s.handleMealUpdate)
	mux.HandleFunc("DELETE /meals/{id}", s.handleMealDelete)
	mux.HandleFunc("GET /meal-plan", s.handleMealPlan)
	mux.HandleFunc("POST /meal-plan", s.handleMealPlanCreate)
	mux.HandleFunc("DELETE /meal-plan/{id}", s.handleMealPlanDelete)

	mux.HandleFunc("GET /christmas", s.handleGiftList)
	mux.HandleFunc("POST /christmas", s.handleGiftCreate)
	mux.HandleFunc("PUT /christmas/{id}", s.handleGiftUpdate)
	mux.HandleFunc("POST /christmas/{id}/toggle", s.handleGiftToggle)
	mux.HandleFunc("DELETE /christmas/{id}", s.handleGiftDelete)

	mux.HandleFunc("GET /sandbox", s.handleSandboxList)
	mux.HandleFunc("POST /sandbox", s.handleSandboxCreate)
	mux.HandleFunc("PUT /sandbox/{id}", s.handleSandboxUpdate)
	mux.HandleFunc("DELETE /sandbox/{id}", s.handleSandboxDelete)
	mux.HandleFunc("POST /sandbox/clear", s.handleSandboxClear)
	mux.HandleFunc("POST /sandbox/import", s.handleSandboxImport)
	mux.HandleFunc("GET /sandbox/profiles", s.handleSandboxProfileList)
	mux.HandleFunc("POST /sandbox/profiles", s.handleSandboxProfileSave)
	mux.HandleFunc("DELETE /sandbox/profiles/{id}", s.handleSandboxProfileDelete)
	mux.HandleFunc("POST /sandbox/profiles/{id}/load", s.handleSandboxProfileLoad)

	mux.HandleFunc("GET /admin/data", s.handleAdminData)
	mux.HandleFunc("GET /admin/table/{name}", s.handleAdminTableList)
	mux.HandleFunc("POST /admin/table/{name}", s.handleAdminTableInsert)
	mux.HandleFunc("PUT /admin/table/{name}/{id}", s.handleAdminTableUpdate)
	mux.HandleFunc("DELETE /admin/table/{name}/{id}", s.handleAdminTableDelete)

	mux.HandleFunc("GET /ai/models", s.handleAIModels)
	mux.HandleFunc("POST /ai/generate", s.handleAIGenerate)

	// Outermost first: headers, tracing, rate limiting, then auth.
	var handler http.Handler = mux
	handler = authmw.NewMiddleware(s.jwt, s.repo).Middleware(handler)
	handler = s.limiter.Middleware(clientIP)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	return handler
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops background middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"requests_served": s.tracer.TotalRequests(),
		"tracked_clients": s.limiter.ActiveClients(),
	})
}
