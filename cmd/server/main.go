package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/procure-marine/procure-marine-web/internal/cart"
	"github.com/procure-marine/procure-marine-web/internal/catalog"
	"github.com/procure-marine/procure-marine-web/internal/checkout"
	"github.com/procure-marine/procure-marine-web/internal/config"
	"github.com/procure-marine/procure-marine-web/internal/email"
	"github.com/procure-marine/procure-marine-web/internal/format"
	"github.com/procure-marine/procure-marine-web/internal/handlers"
)

func main() {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// TextHandler for console readability; for production JSONHandler might be preferred.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Load Catalog (immutable for the life of the process)
	cat, err := catalog.Load(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to load catalog data", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded", "products", len(cat.Products()), "categories", len(cat.Categories()))

	// 3. Cart persistence
	cartStorage, err := cart.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize cart storage", "error", err)
		os.Exit(1)
	}
	defer cartStorage.Close()

	// 4. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 5. Order email dispatch
	var mailer email.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = email.NewClient(cfg.ResendAPIKey)
	} else {
		mailer = email.LogMailer{}
	}
	pipeline := checkout.NewPipeline(mailer, cfg.OrderFrom, cfg.OrderTo)

	// 6. Init Templates
	templates := handlers.NewTemplateCache()
	templates.AddFunc("price", format.Price)
	templates.AddFunc("lineTotal", format.LineTotal)
	templates.AddFunc("amount", format.Amount)

	if err := templates.Load("templates"); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 7. Setup Handlers
	pageHandler := &handlers.PageHandler{
		Catalog:      cat,
		Templates:    templates,
		SessionStore: sessionStore,
		CartStorage:  cartStorage,
	}
	cartHandler := &handlers.CartHandler{
		Catalog:      cat,
		Templates:    templates,
		SessionStore: sessionStore,
		CartStorage:  cartStorage,
	}
	checkoutHandler := &handlers.CheckoutHandler{
		Pipeline:     pipeline,
		Templates:    templates,
		SessionStore: sessionStore,
		CartStorage:  cartStorage,
	}

	mux := http.NewServeMux()

	// Static Files
	fileServer := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static", fileServer))

	// Rate limiter for the checkout submission
	rateLimiter := handlers.NewRateLimiter(30 * time.Second)

	// Public Routes
	mux.HandleFunc("/", pageHandler.Home)
	mux.HandleFunc("GET /products", pageHandler.Products)
	mux.HandleFunc("GET /products/{slug}", pageHandler.ProductDetail)

	// Cart
	mux.HandleFunc("GET /cart", cartHandler.ViewCart)
	mux.HandleFunc("POST /cart/add", cartHandler.AddToCart)
	mux.HandleFunc("POST /cart/update", cartHandler.UpdateQuantity)
	mux.HandleFunc("POST /cart/remove", cartHandler.RemoveItem)
	mux.HandleFunc("POST /cart/clear", cartHandler.ClearCart)

	// Checkout
	mux.HandleFunc("GET /checkout", checkoutHandler.CheckoutForm)
	mux.HandleFunc("POST /checkout", rateLimiter.Middleware(checkoutHandler.SubmitOrder))
	mux.HandleFunc("GET /order-success", checkoutHandler.OrderSuccess)

	// 8. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 9. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
