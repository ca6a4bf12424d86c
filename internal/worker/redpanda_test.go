package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/leshachaplin/capirelay/internal/domain"
	"github.com/leshachaplin/capirelay/internal/testingh"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/producer"
)

const topic = "conversions"

type RedpandaTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	container *testingh.Container
	broker    string

	consumerCfg consumer.Config
	producerCfg producer.Config

	suite.Suite
}

func (i *RedpandaTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	i.ctx = ctx
	i.cancelFn = cancel
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var err error
	i.container, err = testingh.NewRedpanda(func(connURL string) error {
		cli, err := kgo.NewClient(kgo.SeedBrokers(connURL))
		if err != nil {
			return err
		}
		defer cli.Close()

		if err = cli.Ping(ctx); err != nil {
			return err
		}
		i.broker = connURL

		resp, err := kadm.NewClient(cli).CreateTopics(ctx, 1, 1, map[string]*string{}, topic)
		if err != nil {
			return err
		}
		for _, r := range resp {
			if r.Err != nil {
				return r.Err
			}
		}
		return nil
	})
	i.Require().NoError(err)

	i.consumerCfg = consumer.Config{
		Brokers:       []string{i.broker},
		ConsumerGroup: "conversions-cg",
		Topics:        []string{topic},
	}
	i.producerCfg = producer.Config{
		RetryAttempts: 5,
		RetryDelay:    time.Second,
		Brokers:       []string{i.broker},
		Topic:         topic,
	}
}

func (i *RedpandaTestSuite) TearDownSuite() {
	i.cancelFn()
	i.Assert().NoError(i.container.Purge())
}

func TestRedpandaTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker backed suite in short mode")
	}
	suite.Run(t, new(RedpandaTestSuite))
}

func (i *RedpandaTestSuite) TestPool_RedpandaQueue() {
	cases := map[string]struct {
		cfg        Config
		taskAmount int
	}{
		"ok": {
			cfg:        Config{NumWorkers: 10},
			taskAmount: 100,
		},
		"ok - tasks less than workers": {
			cfg:        Config{NumWorkers: 20},
			taskAmount: 5,
		},
	}

	for name, tc := range cases {
		tt := tc
		i.Run(name, func() {
			ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
			defer cancel()

			consumerErrorChan := make(chan error, 1)
			c, err := consumer.NewConsumer(i.consumerCfg, consumerErrorChan, log.Logger)
			i.Require().NoError(err)
			defer c.Close()

			p, err := producer.NewProducer(ctx, i.producerCfg, log.With().Str("producer", "Publish").Logger())
			i.Require().NoError(err)
			defer p.Close()

			var seen atomic.Int64
			wg := &sync.WaitGroup{}
			wg.Add(tt.taskAmount)
			execFn := func(ctx context.Context, conversion domain.Conversion) error {
				if seen.Add(1) <= int64(tt.taskAmount) {
					defer wg.Done()
				}
				i.Equal("Purchase", conversion.EventName)
				i.Equal("u1", conversion.Params["user_id"])
				return nil
			}

			pool := New(ctx, tt.cfg, NewRedpandaQueue(p, c), log.With().Str("WORKER", "CONVERSION").Logger())
			pool.Start(execFn)

			for k := 0; k < tt.taskAmount; k++ {
				i.Require().NoError(pool.Process(domain.Conversion{
					EventName: "Purchase",
					EventID:   "e-1",
					Params:    map[string]any{"user_id": "u1"},
				}))
			}

			waitTimeout(i.T(), wg, time.Minute)
			pool.GracefulStop()
		})
	}
}
