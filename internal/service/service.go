package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/capirelay/internal/conversions"
	"github.com/leshachaplin/capirelay/internal/domain"
	"github.com/leshachaplin/capirelay/internal/worker"
)

type Transmitter interface {
	Send(ctx context.Context, event conversions.Event, destinationID, accessToken string) (conversions.Response, error)
}

type DeliveryLog interface {
	StoreDelivery(ctx context.Context, d domain.Delivery) error
}

type Conversion interface {
	Track(ctx context.Context, conversion domain.Conversion) (string, error)
	Deliver(ctx context.Context, conversion domain.Conversion) (conversions.Response, error)
}

// Destination is the pixel the conversions are reported to.
type Destination struct {
	ID          string
	AccessToken string
}

type Service struct {
	pool        worker.WorkerPool
	transmitter Transmitter
	deliveries  DeliveryLog
	destination Destination
	logger      zerolog.Logger
}

// New starts the pool with Deliver as its task. deliveries may be nil, in which case
// outcomes are only logged.
func New(
	pool worker.WorkerPool,
	transmitter Transmitter,
	deliveries DeliveryLog,
	destination Destination,
	logger zerolog.Logger,
) *Service {
	s := &Service{
		pool:        pool,
		transmitter: transmitter,
		deliveries:  deliveries,
		destination: destination,
		logger:      logger,
	}

	pool.Start(func(ctx context.Context, conversion domain.Conversion) error {
		_, err := s.Deliver(ctx, conversion)
		return err
	})

	return s
}
