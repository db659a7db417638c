package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/username/sigortaapp/backend/src/catalog"
	"github.com/username/sigortaapp/backend/src/config"
	"github.com/username/sigortaapp/backend/src/handlers"
	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/services"
	"github.com/username/sigortaapp/backend/src/wizard"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{}
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("SigortaApp backend server starting...")

	logger.L.Info("Initializing catalog client...", "baseURL", config.Cfg.CatalogAPIBaseURL)
	catalogClient := catalog.NewClient(
		config.Cfg.CatalogAPIBaseURL,
		config.Cfg.CatalogTimeout,
		config.Cfg.CatalogCacheTTL,
	)

	logger.L.Info("Initializing services and handlers...")
	sessionService := services.NewSessionService(config.Cfg.SessionTTL)
	orderNotifier := services.NewOrderNotifier()
	orderService := services.NewOrderService(catalogClient, orderNotifier)

	machine := wizard.NewMachine(
		catalogClient,
		config.Cfg.StepVerifyDelay,
		config.Cfg.QuoteRevealDelay,
		config.Cfg.PriceFloor,
		config.Cfg.CardPriceMarkup,
	)

	wizardHandler := handlers.NewWizardHandler(sessionService, machine)
	orderHandler := handlers.NewOrderHandler(sessionService, orderService)
	metaHandler := handlers.NewMetaHandler(catalogClient)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/session", wizardHandler.HandleCreateSession)
	apiRouter.HandleFunc("GET /api/session/{id}", wizardHandler.HandleGetSession)
	apiRouter.HandleFunc("DELETE /api/session/{id}", wizardHandler.HandleDeleteSession)
	apiRouter.HandleFunc("POST /api/session/{id}/identity", wizardHandler.HandleSubmitIdentity)
	apiRouter.HandleFunc("POST /api/session/{id}/registration", wizardHandler.HandleSubmitRegistration)
	apiRouter.HandleFunc("POST /api/session/{id}/back", wizardHandler.HandleBack)
	apiRouter.HandleFunc("POST /api/session/{id}/vehicle/brand", wizardHandler.HandleSelectBrand)
	apiRouter.HandleFunc("POST /api/session/{id}/vehicle/model", wizardHandler.HandleSelectModel)
	apiRouter.HandleFunc("POST /api/session/{id}/vehicle/year", wizardHandler.HandleSelectYear)
	apiRouter.HandleFunc("POST /api/session/{id}/quote", wizardHandler.HandleRequestQuote)
	apiRouter.HandleFunc("POST /api/session/{id}/offer", wizardHandler.HandleSelectOffer)
	apiRouter.HandleFunc("POST /api/session/{id}/new-query", wizardHandler.HandleNewQuery)

	apiRouter.HandleFunc("POST /api/session/{id}/order", orderHandler.HandlePlaceOrder)
	apiRouter.HandleFunc("GET /api/payment/card", orderHandler.HandleCardPayment)

	apiRouter.HandleFunc("GET /api/bank-accounts", metaHandler.HandleBankAccounts)
	apiRouter.HandleFunc("GET /api/logo", metaHandler.HandleLogo)
	apiRouter.HandleFunc("POST /api/cancel-request", metaHandler.HandleCancelRequest)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "SigortaApp Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
