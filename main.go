package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listsync/config"
	"listsync/handlers/api/lists"
	"listsync/handlers/auth"
	"listsync/identity"
	authMiddleware "listsync/middleware"
	"listsync/remote"
	"listsync/session"
	"listsync/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(cfg config.Config, manager *session.Manager, authHandler *auth.Handler, signer *auth.Signer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.Post("/credentials", authHandler.HandleCredentials)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT(signer))
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/session", authHandler.HandleSession)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT(signer))
		lists.Routes(manager)(r)
	})

	return r
}

func waitForShutdown(srv *http.Server) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	cfg := config.Load()

	listenAddress := flag.String("listen", cfg.Addr, "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	store := stores.GetStore(cfg)
	manager := session.NewManager(store, cfg.APIURL, nil, cfg.SessionTTL)

	// Sign-in traffic uses its own client: a refused login is a normal
	// step there and must not invalidate anybody's session.
	accounts := remote.New(cfg.APIURL, nil)
	bridge := identity.NewBridge(accounts, identity.NewDeriver(cfg.LinkSecret))
	if cfg.LinkSecret == "" {
		logrus.Warn("LINK_SECRET is not set, OAuth accounts use the unkeyed link secret.")
	}

	signer := auth.NewSigner(cfg.JWTSecret)
	authHandler := auth.NewHandler(context.Background(), cfg, manager, bridge, accounts, signer)

	r := setupRouter(cfg, manager, authHandler, signer)

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithFields(logrus.Fields{
		"addr":      *listenAddress,
		"authority": cfg.APIURL,
	}).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv)
}
