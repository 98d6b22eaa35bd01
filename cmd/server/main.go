package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"geocoin.ai/internal/logging"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world"
)

type serverEnv struct {
	LogLevel        string `env:"LOG_LEVEL"                  envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT"                 envDefault:"text"`
	DeployEnv       string `env:"DEPLOY_ENV"`
	EnableAdminHTTP *bool  `env:"GEOCOIN_ENABLE_ADMIN_HTTP"`
	EnablePprofHTTP bool   `env:"GEOCOIN_ENABLE_PPROF_HTTP"`
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		storeKind  = flag.String("store", "file", "save backend: file, sqlite or memory")
		slot       = flag.String("slot", "default", "save slot (sqlite backend)")
		fresh      = flag.Bool("fresh", false, "ignore any existing save and start a new game")
	)
	flag.Parse()

	var senv serverEnv
	if err := env.Parse(&senv); err != nil {
		logrus.Fatalf("parse env: %v", err)
	}
	logger := logging.New(senv.LogLevel, senv.LogFormat)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if err := tune.ApplyEnv(); err != nil {
		logger.Fatalf("tuning env: %v", err)
	}

	be, err := openBackend(*storeKind, *dataDir, *slot)
	if err != nil {
		logger.Fatalf("open %s backend: %v", *storeKind, err)
	}
	defer be.Close()

	w, err := world.New(tune.WorldConfig(), be.cells)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(logger)
	w.SetSessionStore(be.session)
	if be.audit != nil {
		w.SetAuditLogger(be.audit)
	}

	if *fresh {
		_, err = w.Reset()
	} else {
		_, err = w.LoadSession(be.session)
	}
	switch {
	case errors.Is(err, world.ErrDeserialization):
		logger.WithError(err).Warn("save unusable; started a fresh game")
	case err != nil:
		logger.Fatalf("start game: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"store":     be.kind,
		"cell":      w.PlayerCell().String(),
		"inventory": len(w.Inventory()),
	}).Info("game ready")

	ctx, cancel := signalContext()
	defer cancel()

	adminHTTP := defaultEnableAdminHTTP(senv.DeployEnv)
	if senv.EnableAdminHTTP != nil {
		adminHTTP = *senv.EnableAdminHTTP
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(w, muxOptions{Admin: adminHTTP, Pprof: senv.EnablePprofHTTP}, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Infof("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped")
		be.Close()
		os.Exit(1)
	}
	logger.Info("bye")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP(deployEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(deployEnv)) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
