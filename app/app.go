package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leshachaplin/capirelay/app/waiter"
	"github.com/leshachaplin/capirelay/internal/config"
	"github.com/leshachaplin/capirelay/internal/conversions"
	appServer "github.com/leshachaplin/capirelay/internal/server/http"
	"github.com/leshachaplin/capirelay/internal/service"
	"github.com/leshachaplin/capirelay/internal/storage/delivery/clickhouse"
	"github.com/leshachaplin/capirelay/internal/worker"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/producer"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = time.Minute
)

type LoadConfigFn func() (config.Config, error)

type App struct {
	cfg      config.Config
	logger   zerolog.Logger
	server   *appServer.Server
	waiter   waiter.Waiter
	ctx      context.Context
	cancelFn context.CancelFunc
}

func New(loadConfigFn LoadConfigFn) *App {
	ctx, cancelFn := context.WithCancel(context.Background())
	cfg, err := loadConfigFn()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	logger := NewZeroLogger(cfg)

	w := waiter.NewWaiter(ctx, cancelFn)

	return &App{
		cfg:      cfg,
		logger:   logger,
		waiter:   w,
		ctx:      ctx,
		cancelFn: cancelFn,
	}
}

func (a *App) Start() {
	defer a.cancelFn()

	if a.cfg.Conversions.PixelID == "" || a.cfg.Conversions.AccessToken == "" {
		a.logger.Warn().Msg("pixel id or access token is not set, every conversion will fail")
	}

	queue, closeQueue := a.setupQueue()
	defer closeQueue()

	l := a.logger.With().Str("WORKER", "CONVERSION").Logger()
	conversionWorker := worker.New(a.ctx, a.cfg.EventWorker, queue, l)

	var deliveries service.DeliveryLog
	if a.cfg.Clickhouse.Addr != "" {
		deliveryStorage, err := clickhouse.New(a.ctx, a.cfg.Clickhouse)
		if err != nil {
			a.logger.Fatal().Err(err).Msg("Could not setup delivery storage.")
		}
		defer deliveryStorage.Close()

		if err = deliveryStorage.Migrate(a.ctx); err != nil {
			a.logger.Fatal().Err(err).Msg("Could not migrate delivery storage.")
		}
		deliveries = deliveryStorage
	}

	transmitter := conversions.NewClient(a.cfg.Conversions)
	conversionService := service.New(
		conversionWorker,
		transmitter,
		deliveries,
		service.Destination{
			ID:          a.cfg.Conversions.PixelID,
			AccessToken: a.cfg.Conversions.AccessToken,
		},
		a.logger.With().Str("SERVICE", "CONVERSION").Logger(),
	)
	handler := appServer.NewHandler(conversionService, a.logger)

	a.server = appServer.New(handler, a.cfg.Addr)

	a.waitForServer()
	a.waitForWorker(conversionWorker)

	if err := a.waiter.Wait(); err != nil {
		a.logger.Fatal().Err(err).Msg("App crash.")
	}
}

func (a *App) Stop() {
	a.cancelFn()
}

func (a *App) setupQueue() (worker.Queue, func()) {
	if !a.cfg.UseBrokers() {
		a.logger.Info().Msg("no brokers configured, using in-memory conversion queue")
		return worker.NewMemoryQueue(a.cfg.EventWorker.QueueSize), func() {}
	}

	consumerErrorChan := make(chan error, 1)
	conversionConsumer, err := consumer.NewConsumer(
		a.cfg.EventConsumer,
		consumerErrorChan,
		a.logger.With().Str("conversion consumer", "Consume").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup conversion consumer.")
	}

	conversionProducer, err := producer.NewProducer(
		a.ctx,
		a.cfg.EventProducer,
		a.logger.With().Str("conversion producer", "Publish").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup conversion producer.")
	}

	a.waiter.Add(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-consumerErrorChan:
				a.logger.Error().Err(err).Msg("conversion consumer failure")
			}
		}
	})

	return worker.NewRedpandaQueue(conversionProducer, conversionConsumer), func() {
		_ = conversionProducer.Close()
		_ = conversionConsumer.Close()
	}
}

func (a *App) waitForServer() {
	a.waiter.Add(func(ctx context.Context) error {
		defer a.logger.Debug().Msg("server has been shutdown")

		group, gCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			defer a.logger.Debug().Msg("public server exited")
			a.logger.Info().Str("starting server at: ", a.cfg.Addr).Send()
			err := a.server.ServePublic()
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gCtx.Done()
			a.logger.Debug().Msg("shutting down the server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.ShutdownPublic(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("error while shutting down the server")
			}
			return nil
		})

		return group.Wait()
	})
}

func (a *App) waitForWorker(conversionWorker worker.WorkerPool) {
	a.waiter.Add(func(ctx context.Context) error {
		<-ctx.Done()
		conversionWorker.GracefulStop()
		return nil
	})
}
