package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/suite"

	"github.com/leshachaplin/capirelay/app"
	"github.com/leshachaplin/capirelay/internal/config"
	"github.com/leshachaplin/capirelay/internal/conversions"
	"github.com/leshachaplin/capirelay/internal/worker"
)

const (
	pixelID     = "pixel123"
	accessToken = "token456"
)

type receivedCall struct {
	path string
	body map[string]any
}

// fakeGraph stands in for the conversions API. Events named "Reject" are answered with 400.
type fakeGraph struct {
	calls chan receivedCall
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	f.calls <- receivedCall{path: r.URL.Path, body: body}

	w.Header().Set("Content-Type", "application/json")
	data, _ := body["data"].([]any)
	if len(data) == 1 {
		if event, ok := data[0].(map[string]any); ok && event["event_name"] == "Reject" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"events_received":1,"fbtrace_id":"trace-1"}`))
}

type IntegrationTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	graph    *fakeGraph
	graphSrv *httptest.Server
	app      *app.App
	client   *Client

	wg *sync.WaitGroup

	suite.Suite
}

func (i *IntegrationTestSuite) SetupSuite() {
	i.ctx, i.cancelFn = context.WithTimeout(context.Background(), time.Minute)

	i.graph = &fakeGraph{calls: make(chan receivedCall, 100)}
	i.graphSrv = httptest.NewServer(i.graph)

	addr, err := freeAddr()
	i.Require().NoError(err)

	i.app = app.New(func() (config.Config, error) {
		return config.Config{
			LogLevel: "DEBUG",
			Addr:     addr,
			Conversions: conversions.Config{
				BaseURL:     i.graphSrv.URL,
				APIVersion:  "v19.0",
				PixelID:     pixelID,
				AccessToken: accessToken,
			},
			EventWorker: worker.Config{
				NumWorkers: 4,
				QueueSize:  100,
			},
		}, nil
	})

	i.wg = &sync.WaitGroup{}
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.app.Start()
	}()

	baseURL := fmt.Sprintf("http://%s", addr)
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = 5 * time.Second
	res, err := retryClient.Get(baseURL + "/_/ready")
	i.Require().NoError(err)
	_ = res.Body.Close()

	i.client = NewClient(baseURL, &http.Client{Timeout: 10 * time.Second})
}

func (i *IntegrationTestSuite) TearDownSuite() {
	i.app.Stop()
	i.wg.Wait()
	i.graphSrv.Close()
	i.cancelFn()
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (i *IntegrationTestSuite) nextCall() receivedCall {
	select {
	case call := <-i.graph.calls:
		return call
	case <-time.After(10 * time.Second):
		i.FailNow("conversions API was not called")
		return receivedCall{}
	}
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
