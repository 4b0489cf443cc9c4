package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/sample_app/internal/authn"
	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/config"
	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/db"
	"github.com/Skotchmaster/sample_app/internal/es"
	"github.com/Skotchmaster/sample_app/internal/httpserver"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/sample_app/internal/middleware/logging"
	"github.com/Skotchmaster/sample_app/internal/mykafka"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
	"github.com/Skotchmaster/sample_app/internal/service/search"
	"github.com/Skotchmaster/sample_app/internal/session"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	baseCtx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(gdb)
	}
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}

	events := &mykafka.UserEvents{Topic: cfg.UserEventsTopic}
	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		if err := mykafka.EnsureTopics(cfg.KafkaBrokers[0], cfg.UserEventsTopic); err != nil {
			logger.Warn("kafka_topics_not_created", "error", err)
		}
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			cancel()
			log.Fatalf("kafka init error: %v", err)
		}
		events.Publisher = prod
	}

	esClient, err := es.NewClient(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	rp := &repo.GormRepo{DB: gdb}
	sessions := &session.Manager{
		Store:   rp,
		Secret:  cfg.SessionSecret,
		TTL:     cfg.SessionTTL,
		Timeout: cfg.StoreTimeout,
	}
	authenticator := &authn.Authenticator{
		Credentials: &credentials.Store{Users: rp},
		Sessions:    sessions,
	}
	users := &service.UserService{Repo: rp, Events: events}
	if esClient != nil {
		users.Directory = &search.UserIndex{ES: esClient, Index: cfg.ESUsersIndex}
	}
	microposts := &service.MicropostService{Repo: rp}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(logger),
		middleware.Secure(),
	)
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.CookieSecure
		csrfCfg.SkipPaths = []string{"/health/live", "/health/ready"}
		e.Use(csrf.Middleware(csrfCfg))
	}

	err = httpserver.Register(e, &httpserver.Deps{
		Guard: &authz.Guard{Sessions: sessions, Rules: authz.DefaultRules()},
		SessionsHandler: &httpserver.SessionsHTTP{
			Auth:         authenticator,
			Sessions:     sessions,
			Events:       events,
			CookieSecure: cfg.CookieSecure,
		},
		UsersHandler: &httpserver.UsersHTTP{
			Svc:          users,
			Microposts:   microposts,
			Auth:         authenticator,
			CookieSecure: cfg.CookieSecure,
		},
		MicropostsHandler: &httpserver.MicropostsHTTP{Svc: microposts},
		CookieSecure:      cfg.CookieSecure,
		SigninLimiter:     httpserver.NewSigninLimiter(cfg.SigninRatePerMin),
		SearchEnabled:     esClient != nil,
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})
	if err != nil {
		log.Fatalf("route setup error: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	logger.Info("shutdown complete")
}
