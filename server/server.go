package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/apitienda/store-api/auth"
	"github.com/apitienda/store-api/internal/config"
	"github.com/apitienda/store-api/products"
	"github.com/apitienda/store-api/token"
	"github.com/apitienda/store-api/users"
)

// Server exposes the store's REST API: session endpoints under /api/auth,
// user management under /api/users, and the product catalogue under
// /api/products.
type Server struct {
	env        string // Environment (e.g., "DEV", "production")
	router     chi.Router
	httpServer *http.Server
	config     config.Config
	sessions   *auth.SessionService
	issuer     *token.Issuer
	users      users.Repo
	products   products.Repo
}

func New(cfg config.Config, sessions *auth.SessionService, issuer *token.Issuer, userRepo users.Repo, productRepo products.Repo) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] nil session service")
	}
	if issuer == nil {
		return nil, fmt.Errorf("[Server New] nil token issuer")
	}
	if userRepo == nil || productRepo == nil {
		return nil, fmt.Errorf("[Server New] nil repository")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		config:   cfg,
		sessions: sessions,
		issuer:   issuer,
		users:    userRepo,
		products: productRepo,
	}
	s.initRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) initRoutes() {
	r := chi.NewRouter()

	r.Use(s.LoggingMiddleware)
	r.Use(s.RecoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.GetAllowedOrigins(),
		AllowedMethods: s.config.GetAllowedMethods(),
		AllowedHeaders: s.config.GetAllowedHeaders(),
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.LoginHandler())
			r.Post("/refresh", s.RefreshHandler())
			r.Post("/logout", s.LogoutHandler())
			r.Post("/request-password-reset", s.RequestPasswordResetHandler())
			r.Post("/reset-password", s.ResetPasswordHandler())
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.CreateUserHandler())

			// Everything below requires a valid access token.
			r.Group(func(r chi.Router) {
				r.Use(s.RequireAccessToken)
				r.With(s.RequireRole(users.RoleAdmin)).Get("/", s.ListUsersHandler())
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.GetUserHandler())
					r.Post("/change-password", s.ChangePasswordHandler())
					r.Group(func(r chi.Router) {
						r.Use(s.RequireRole(users.RoleAdmin))
						r.Delete("/", s.DeleteUserHandler())
						r.Patch("/restore", s.RestoreUserHandler())
						r.Patch("/activate", s.ActivateUserHandler())
						r.Patch("/deactivate", s.DeactivateUserHandler())
						r.Post("/verify-email", s.VerifyEmailHandler())
					})
				})
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.ListProductsHandler())
			r.Get("/search", s.SearchProductsHandler())
			r.Get("/price", s.ProductPriceRangeHandler())
			r.Get("/{id}", s.GetProductHandler())

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAccessToken, s.RequireRole(users.RoleAdmin))
				r.Post("/", s.CreateProductHandler())
				r.Put("/{id}", s.UpdateProductHandler())
				r.Patch("/{id}", s.PatchProductHandler())
				r.Delete("/{id}", s.DeleteProductHandler())
			})
		})
	})

	s.router = r
	s.logRoutes()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start blocks serving requests until the listener fails or Stop is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[Server Start] listener failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests before shutting the listener down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logRoute(method, route)
		return nil
	})
}
