package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ZhengkaiWang/sfin-admin/internal/mailer"
	httpapi "github.com/ZhengkaiWang/sfin-admin/internal/portal/http"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/session"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store/drivers/postgrest"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store/drivers/sqlite"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the portal service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions *session.Client
	mail     mailer.Mailer

	// Broker connection, only set for the queue mailer driver.
	amqpConn *amqp.Connection

	verificationService *service.VerificationService
	tokenService        *service.TokenService
	adminService        *service.AdminService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sfin-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initMailer(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.sessions = session.NewClient(session.Config{
		AuthURL:   cfg.AuthURL,
		JWTSecret: cfg.JWTSecret,
		AnonKey:   cfg.AnonKey,
	})

	app.initServices()
	app.initHTTP()

	return app, nil
}

func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "postgrest":
		st, err := postgrest.NewStore(postgrest.Config{
			BaseURL:    app.cfg.BackendURL,
			ServiceKey: app.cfg.ServiceKey,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize postgrest store: %w", err)
		}
		app.db = st
	case "sqlite":
		st, err := sqlite.NewStore(app.cfg.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		if err := st.ApplyMigrations(); err != nil {
			_ = st.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		app.db = st
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
	return nil
}

func (app *Application) initMailer() error {
	switch app.cfg.MailerDriver {
	case "function":
		app.mail = mailer.NewFunctionMailer(mailer.FunctionConfig{
			BaseURL:    app.cfg.BackendURL,
			ServiceKey: app.cfg.ServiceKey,
		})
	case "queue":
		conn, err := amqp.Dial(app.cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to open broker channel: %w", err)
		}
		qm, err := mailer.NewQueueMailer(ch, app.cfg.EmailQueue)
		if err != nil {
			_ = conn.Close()
			return err
		}
		app.amqpConn = conn
		app.mail = qm
	default:
		return fmt.Errorf("unknown mailer driver %q", app.cfg.MailerDriver)
	}
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{Store: app.db}
	app.adminService = &service.AdminService{Store: app.db}
	app.verificationService = &service.VerificationService{
		Store:           app.db,
		Mailer:          app.mail,
		Tokens:          app.tokenService,
		PublicURL:       app.cfg.PublicURL,
		VerificationTTL: app.cfg.VerificationTTL,
		TokenValidity:   app.cfg.TokenValidity,
	}
}

func (app *Application) initHTTP() {
	gate := &httpapi.Gate{
		Resolver:   app.sessions,
		Store:      app.db,
		CookieName: app.cfg.SessionCookie,
		LoginPath:  app.cfg.LoginPath,
		ManagePath: app.cfg.ManagePath,
	}

	app.router = httpapi.NewRouter(app.db, gate, app.logger, BuildVersion)
	app.router.VerificationService = app.verificationService
	app.router.TokenService = app.tokenService
	app.router.AdminService = app.adminService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    ":" + strconv.Itoa(app.cfg.Port),
		Handler: app.router,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store_driver", app.cfg.StoreDriver,
		"mailer_driver", app.cfg.MailerDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.amqpConn != nil {
		if err := app.amqpConn.Close(); err != nil {
			app.logger.Error("error closing broker connection", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}
