// Command rsession runs a demo HTTP server counting visits per session.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/rsession"
	"github.com/viant/rsession/config"
	shttp "github.com/viant/rsession/http"
	"github.com/viant/rsession/lock"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()
	if err := run(*configPath); err != nil {
		logrus.WithError(err).Error("rsession failed")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logrus.New()
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchdog := lock.NewWatchdog(append(cfg.WatchdogOptions(), lock.WithWatchdogLogger(logger))...)
	watchdog.OnRelease = func(ids []string) {
		logger.WithField("sessions", ids).Warn("watchdog released session locks")
	}
	options := append(cfg.Options(), rsession.WithLogger(logger), rsession.WithWatchdog(watchdog))
	service, err := rsession.New(ctx, options...)
	if err != nil {
		return err
	}

	handler := shttp.New(service, httpOptions(cfg, logger)...)
	mux := http.NewServeMux()
	mux.Handle("/", handler.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aSession := rsession.FromContext(r.Context())
		visits := aSession.Values().Incr("visits")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"session":%q,"visits":%d}`, aSession.ID(), visits)
	})))
	mux.Handle("/logout", handler.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler.Destroy(w, r); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})))
	server := shttp.NewServer(cfg.HTTP.Addr, mux)

	// the watchdog outlives the server so that requests cut off by the shutdown timeout get released
	watchCtx, stopWatch := context.WithCancel(context.Background())
	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("addr", cfg.HTTP.Addr).Info("listening")
		return server.Start()
	})
	group.Go(func() error {
		<-gCtx.Done()
		defer stopWatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return watchdog.Run(watchCtx)
	})
	return group.Wait()
}

func httpOptions(cfg *config.Config, logger *logrus.Logger) []shttp.Option {
	var location *shttp.Location
	switch strings.ToLower(cfg.HTTP.Location) {
	case shttp.KindHeader:
		location = shttp.NewHeaderLocation(cfg.HTTP.Name)
	case shttp.KindQuery:
		location = shttp.NewQueryLocation(cfg.HTTP.Name)
	default:
		location = shttp.NewCookieLocation(cfg.HTTP.Name)
	}
	return []shttp.Option{
		shttp.WithLocation(location),
		shttp.WithCookie(&shttp.Cookie{
			Path:     cfg.HTTP.CookiePath,
			Domain:   cfg.HTTP.CookieDomain,
			Secure:   cfg.HTTP.CookieSecure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   cfg.HTTP.CookieMaxAge,
		}),
		shttp.WithCookieUseTopDomain(cfg.HTTP.TopDomain),
		shttp.WithLogger(logger),
	}
}
