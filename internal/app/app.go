package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"abbot-web/config"
	apiv1 "abbot-web/internal/api/v1"
	"abbot-web/internal/httpserver"
	"abbot-web/internal/invite"
	"abbot-web/internal/landing"
	"abbot-web/internal/logging"
	"abbot-web/internal/sessions"
	"abbot-web/internal/ui"
)

const (
	appName            = "abbotweb"
	defaultConfigPath  = "config.json"
	defaultLogDir      = "data"
	defaultLogFileName = "abbotweb.log"
	defaultReadTimeout = 10 * time.Second
	shutdownTimeout    = 15 * time.Second
)

// Options controls how the application boots and where it loads configuration from.
type Options struct {
	ConfigPath  string
	LogDir      string
	LogFile     string
	ReadTimeout time.Duration
	AssetsDir   string
}

// Run wires dependencies together and blocks until the provided context is cancelled
// or the HTTP server exits with an error.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	opts = opts.withDefaults()

	logFilePath := filepath.Join(opts.LogDir, opts.LogFile)
	logFile, err := configureLogging(logFilePath)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logFile.Close()

	appCfg, err := config.LoadOptional(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger := logging.New()

	store, router, err := build(appCfg, opts, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Addr:        appCfg.Server.Addr,
		Port:        appCfg.Server.Port,
		ReadTimeout: opts.ReadTimeout,
		Logger:      logger,
		Handler:     router,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	logger.Printf("Sending invites through %s", appCfg.Invite.Endpoint)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		return store.Run(gctx, appCfg.SweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("Shutting down...")
		// In-flight invite submissions are allowed to finish.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// build assembles the dispatcher, session store, page and API router.
func build(cfg config.Config, opts Options, logger logging.Logger) (*sessions.Store, http.Handler, error) {
	dispatcher := invite.NewClient(invite.Options{
		Endpoint: cfg.Invite.Endpoint,
		Timeout:  cfg.InviteTimeout(),
		Logger:   logging.WithPrefix(logger, "invite: "),
	})

	controllerLogger := logging.WithPrefix(logger, "landing: ")
	store := sessions.NewStore(sessions.Options{
		TTL:          cfg.SessionTTL(),
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
		Logger:       logging.WithPrefix(logger, "sessions: "),
		NewController: func(n landing.Notifier) *landing.Controller {
			return landing.New(landing.Options{
				Dispatcher: dispatcher,
				Notifier:   n,
				Logger:     controllerLogger,
			})
		},
	})

	page, err := ui.New(ui.Options{
		Sessions:  store,
		Site:      siteFromConfig(cfg.Site),
		Logger:    logging.WithPrefix(logger, "ui: "),
		AssetsDir: opts.AssetsDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build ui: %w", err)
	}

	router := apiv1.NewRouter(apiv1.Options{
		Logger:   logger,
		Sessions: store,
		UI:       page,
		RuntimeInfo: apiv1.RuntimeInfo{
			Name:           appName,
			Addr:           cfg.Server.Addr,
			Port:           cfg.Server.Port,
			ReadTimeout:    opts.ReadTimeout.String(),
			InviteEndpoint: dispatcher.Endpoint(),
		},
	})
	return store, router, nil
}

func siteFromConfig(cfg config.SiteConfig) ui.Site {
	return ui.Site{
		TelegramHandle: cfg.TelegramHandle,
		NostrNpub:      cfg.NostrNpub,
		ContactEmail:   cfg.ContactEmail,
	}
}

func (o Options) withDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = defaultConfigPath
	}
	if o.LogDir == "" {
		o.LogDir = defaultLogDir
	}
	if o.LogFile == "" {
		o.LogFile = defaultLogFileName
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	return o
}
