package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tckz/tempo-downloads/internal/config"
	"github.com/tckz/tempo-downloads/internal/counter"
	"github.com/tckz/tempo-downloads/internal/httpapi"
	"github.com/tckz/tempo-downloads/internal/log"
	"github.com/tckz/tempo-downloads/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
	cfg     config.Config
)

var (
	optLogLevel = flag.String("log-level", "", "info|warn|error (default: LOG_LEVEL)")
	optListen   = flag.String("listen", "", "addr:port to listen (default: LISTEN_ADDR)")
)

func init() {
	godotenv.Load()

	flag.Parse()

	// Until log initialization complete, use default json logger instead of it.
	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger = zl.Sugar().With(zap.String("app", myName))

	cfg, err = config.Load()
	if err != nil {
		logger.Fatalf("*** config.Load: %v", err)
	}
	if *optLogLevel != "" {
		cfg.LogLevel = *optLogLevel
	}
	if *optListen != "" {
		cfg.ListenAddr = *optListen
	}

	zl, err = log.NewLogger(log.WithLogLevel(cfg.LogLevel), log.WithApp(myName))
	if err != nil {
		logger.Fatalf("*** log.NewLogger: %v", err)
	}
	logger = zl.Sugar()
}

func main() {
	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := cfg.Store()
	st, err := store.Open(ctx, sc)
	if err != nil {
		logger.Errorf("store.Open: backend=%s, %v", sc.Backend, err)
		st = store.Disabled{}
	}
	defer st.Close()
	if !sc.Configured() {
		logger.Warnf("store not configured: backend=%s, counts fall back to synthetic only", sc.Backend)
	}

	svc := counter.New(st, cfg.LaunchEpoch,
		counter.WithKey(cfg.CounterKey),
		counter.WithLogger(logger))

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: httpapi.New(svc, httpapi.Config{
			AdminSecret:        cfg.AdminSecret,
			TrackTimeout:       cfg.TrackTimeout,
			HasStoreLocation:   sc.HasLocation(),
			HasStoreCredential: sc.HasCredential(),
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Infof("listen=%s, launch=%s", cfg.ListenAddr, cfg.LaunchEpoch.Format(time.RFC3339))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		select {
		case s := <-sig:
			logger.Infof("Received signal: %v", s)
		case <-ctx.Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	if err := eg.Wait(); err != nil {
		logger.Errorf("Wait: %v", err)
	}
}
