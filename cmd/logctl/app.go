package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/apiclient"
	"carbon-admin-console/internal/localstore"
	"carbon-admin-console/internal/session"
)

// app is the state shared by every command.
type app struct {
	apiURL    string
	stateFile string
	logLevel  string
	lang      string

	cfg     *config.ClientConfig
	store   localstore.Store
	session *session.Session
	client  *apiclient.Client
}

func (a *app) init(cmd *cobra.Command) error {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	a.cfg = config.NewClientConfig()
	if a.apiURL != "" {
		a.cfg.APIBaseURL = a.apiURL
	}
	if a.stateFile != "" {
		a.cfg.StateFile = a.stateFile
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	config.SetLogLevel(a.cfg.LogLevel)

	store, err := localstore.Open(a.cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	a.store = store
	if a.lang != "" {
		if err := store.Set(localstore.KeyLanguage, a.lang); err != nil {
			return err
		}
	}

	a.session = session.New(store)
	if purged, err := a.session.ResetOnce(); err != nil {
		return err
	} else if purged {
		log.Debug().Msg("Cleared legacy auth state")
	}

	a.client = apiclient.New(a.cfg.APIBaseURL, a.session, store,
		apiclient.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
		apiclient.WithUnauthorizedHandler(func(redirect string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "session expired, run `logctl login` (%s)\n", redirect)
		}),
	)
	return nil
}

// requireAuth fails early when there is no usable session.
func (a *app) requireAuth() error {
	status := a.session.CheckAuthStatus()
	if !status.IsAuthenticated {
		return errors.New("not logged in, run `logctl login`")
	}
	return nil
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startRefresher keeps long running commands logged in.
func (a *app) startRefresher() func() {
	r := session.NewRefresher(a.session, a.client)
	if err := r.Start(); err != nil {
		log.Warn().Err(err).Msg("Session refresher not started")
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Stop(ctx)
	}
}
