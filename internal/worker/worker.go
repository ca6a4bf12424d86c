package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/capirelay/internal/domain"
)

const defaultNumWorkers = 4

var ErrStopped = errors.New("worker pool stopped")

type WorkerPool interface {
	Start(executeFn func(ctx context.Context, conversion domain.Conversion) error)
	GracefulStop()
	Process(conversion domain.Conversion) error
}

type Pool struct {
	numWorkers  int
	taskPayload chan domain.Conversion
	queue       Queue
	start       sync.Once
	stop        sync.Once
	doneChan    chan struct{}
	ctx         context.Context
	cancelFn    context.CancelFunc
	wg          *sync.WaitGroup
	logger      zerolog.Logger
}

func New(ctx context.Context, cfg Config, queue Queue, logger zerolog.Logger) *Pool {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}

	c, cancelFn := context.WithCancel(ctx)
	return &Pool{
		numWorkers:  numWorkers,
		taskPayload: make(chan domain.Conversion, numWorkers),
		doneChan:    make(chan struct{}),
		queue:       queue,
		ctx:         c,
		cancelFn:    cancelFn,
		wg:          &sync.WaitGroup{},
		logger:      logger,
	}
}

func (w *Pool) Start(
	executeFn func(ctx context.Context, conversion domain.Conversion) error,
) {
	w.start.Do(func() {
		for i := 0; i < w.numWorkers; i++ {
			w.wg.Add(1)
			l := w.logger.With().Int("worker", i).Logger()
			go w.work(w.ctx, l, executeFn)
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.queue.Consume(w.ctx, w.taskPayload, w.doneChan)
		}()
	})
}

func (w *Pool) GracefulStop() {
	w.stop.Do(func() {
		close(w.doneChan)
		w.cancelFn()
		w.wg.Wait()
	})
}

// Process hands the conversion over to the queue. It does not wait for delivery.
func (w *Pool) Process(conversion domain.Conversion) error {
	select {
	case <-w.doneChan:
		return ErrStopped
	default:
	}

	if err := w.queue.Publish(w.ctx, conversion.Key(), conversion); err != nil {
		w.logger.Error().Err(err).
			Str("EVENT_ID", conversion.EventID).
			Str("EVENT_NAME", conversion.EventName).
			Msg("failed to enqueue conversion")
		return err
	}
	return nil
}

// onFailure only records the failure: failed conversions are not requeued.
func (w *Pool) onFailure(logger zerolog.Logger, conversion domain.Conversion, err error) {
	logger.Error().Err(err).
		Str("EVENT_ID", conversion.EventID).
		Str("EVENT_NAME", conversion.EventName).
		Msg("failed to deliver conversion")
}

func (w *Pool) work(
	ctx context.Context,
	logger zerolog.Logger,
	executeFn func(ctx context.Context, conversion domain.Conversion) error,
) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.doneChan:
			return
		case pld, ok := <-w.taskPayload:
			if !ok {
				return
			}

			logger.Debug().Str("EVENT_ID", pld.EventID).Str("EVENT_NAME", pld.EventName).Msg("start processing conversion")
			if err := executeFn(ctx, pld); err != nil {
				w.onFailure(logger, pld, err)
			}
			logger.Debug().Str("EVENT_ID", pld.EventID).Msg("end processing conversion")
		}
	}
}
