package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/garancija/internal/metrics"
	"github.com/erazemk/garancija/internal/model"
)

// Options tunes the router. The zero value is usable.
type Options struct {
	// Now is the clock used for tokens, coverage status and validation.
	Now     func() time.Time
	Metrics *metrics.Metrics
	// ExpiringDays is the window used by ?expiring=true listings.
	ExpiringDays int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExpiringDays <= 0 {
		opts.ExpiringDays = 30
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Now: opts.Now}
	usersHandler := &UsersHandler{DB: db}
	warrantiesHandler := &WarrantiesHandler{DB: db, Now: opts.Now, ExpiringDays: opts.ExpiringDays}
	transfersHandler := &TransfersHandler{DB: db, Now: opts.Now, Metrics: opts.Metrics}

	authMW := AuthMiddleware(jwtSecret, db, opts.Now)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	manager := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	mux.Handle("GET /api/warranties", authed(warrantiesHandler.List))
	mux.Handle("POST /api/warranties", manager(warrantiesHandler.Create))
	mux.Handle("GET /api/warranties/{id}", authed(warrantiesHandler.Get))
	mux.Handle("PUT /api/warranties/{id}", manager(warrantiesHandler.Update))
	mux.Handle("GET /api/warranties/{id}/transferability", authed(warrantiesHandler.GetTransferability))
	mux.Handle("PUT /api/warranties/{id}/transferability", manager(warrantiesHandler.SetTransferability))
	mux.Handle("GET /api/warranties/{id}/checklist", authed(warrantiesHandler.Checklist))
	mux.Handle("GET /api/warranties/{id}/transfers", authed(transfersHandler.List))
	mux.Handle("POST /api/warranties/{id}/transfers", authed(transfersHandler.Propose))

	mux.Handle("GET /api/transfers/{id}", authed(transfersHandler.Get))
	mux.Handle("POST /api/transfers/{id}/validate", authed(transfersHandler.Validate))
	mux.Handle("PUT /api/transfers/{id}/status", manager(transfersHandler.SetStatus))
	mux.Handle("GET /api/transfers/{id}/agreement", authed(transfersHandler.Agreement))
	mux.Handle("GET /api/transfers/{id}/notice", authed(transfersHandler.Notice))

	mux.Handle("GET /api/conditions/{type}", authed(Conditions))
	mux.Handle("GET /api/providers", authed(Providers))

	return mux
}
