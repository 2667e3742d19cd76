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

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/config"
	"voice-order-confirm/order-confirmation/confirm"
	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/voice"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("Invalid configuration", err)
	}
	logger := telemetry.NewLogger(os.Stderr, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, cfg.OtelEnabled); err != nil {
		log.Fatalln("Unable to init telemetry", err)
	}

	orders, closeStore, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		log.Fatalln("Unable to open order store", err)
	}
	defer func() { _ = closeStore() }()

	dispatcher, closeDispatcher, err := newDispatcher(ctx, cfg, orders, logger)
	if err != nil {
		log.Fatalln("Unable to create dispatcher", err)
	}

	var h http.Handler = voice.NewHandler(orders, dispatcher, logger).Routes()
	if cfg.ValidateTwilioSignature {
		h = voice.NewSignatureValidator(cfg.TwilioAuthToken, cfg.PublicBaseURL, logger).Middleware(h)
	}
	if cfg.WebhookRPS > 0 {
		h = voice.NewRateLimiter(cfg.WebhookRPS, int(cfg.WebhookRPS)*2).Middleware(h)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Webhook server listening", "addr", cfg.ListenAddr, "dispatch", cfg.DispatchMode, "store", cfg.OrderStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalln("Server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := closeDispatcher(shutdownCtx); err != nil {
		logger.Error("Dispatcher shutdown failed", "error", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("Telemetry shutdown failed", "error", err)
	}
}

func newDispatcher(ctx context.Context, cfg *config.Config, orders store.Store, logger tlog.Logger) (confirm.Dispatcher, func(context.Context) error, error) {
	if cfg.DispatchMode == config.DispatchTemporal {
		c, err := client.Dial(client.Options{
			HostPort: cfg.TemporalHost,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) error {
			c.Close()
			return nil
		}
		return confirm.NewTemporalDispatcher(c, cfg.TaskQueue, logger), closeFn, nil
	}

	proc, err := cfg.NewProcessor(orders, logger)
	if err != nil {
		return nil, nil, err
	}

	var claims confirm.Claims = confirm.NewMemoryClaims(confirm.DefaultClaimTTL)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		claims = confirm.NewRedisClaims(rdb, confirm.DefaultClaimTTL)
	}

	d := confirm.NewLocalDispatcher(proc, claims, cfg.LocalWorkers, logger)
	closeFn := func(ctx context.Context) error {
		err := d.Close(ctx)
		if rdb != nil {
			err = errors.Join(err, rdb.Close())
		}
		return err
	}
	return d, closeFn, nil
}
