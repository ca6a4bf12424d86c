package conversions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v19.0"
)

type Config struct {
	BaseURL       string        `yaml:"base_url"`
	APIVersion    string        `yaml:"api_version"`
	PixelID       string        `yaml:"pixel_id"`
	AccessToken   string        `yaml:"access_token"`
	TestEventCode string        `yaml:"test_event_code"`
	Timeout       time.Duration `yaml:"timeout"`
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Option func(*Client)

// WithHTTPClient replaces the transport used for the outbound call.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// Client posts formatted events to the conversions API. It keeps no per-call state and is
// safe for concurrent use.
type Client struct {
	baseURL       string
	apiVersion    string
	testEventCode string
	http          HTTPClient
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:    cfg.APIVersion,
		testEventCode: cfg.TestEventCode,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.apiVersion == "" {
		c.apiVersion = DefaultAPIVersion
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = NewHTTPClient(cfg.Timeout)
	}
	return c
}

// NewHTTPClient returns a client that makes exactly one attempt per request and hands every
// response, whatever its status, back to the caller. Zero timeout keeps the transport default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 0
	rc.CheckRetry = noRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = timeout
	return rc.StandardClient()
}

func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

type requestBody struct {
	Data          []Event `json:"data"`
	AccessToken   string  `json:"access_token"`
	TestEventCode string  `json:"test_event_code,omitempty"`
}

// Response is the decoded body of a successful call.
type Response map[string]any

func (r Response) EventsReceived() int {
	switch v := r["events_received"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (r Response) TraceID() string {
	s, _ := r["fbtrace_id"].(string)
	return s
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send transmits a single event to the destination. There is one attempt and no retry;
// every failure is returned as *Error.
func (c *Client) Send(ctx context.Context, event Event, destinationID, accessToken string) (Response, error) {
	if destinationID == "" {
		return nil, newError(KindConfiguration, "destination id is empty", nil)
	}
	if accessToken == "" {
		return nil, newError(KindConfiguration, "access token is empty", nil)
	}

	body, err := json.Marshal(requestBody{
		Data:          []Event{event},
		AccessToken:   accessToken,
		TestEventCode: c.testEventCode,
	})
	if err != nil {
		return nil, newError(KindInvalidArgument, fmt.Sprintf("marshal event: %s", err), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(destinationID), bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindConfiguration, fmt.Sprintf("create request: %s", err), err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, newError(KindTransport, err.Error(), err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		e := newError(KindTransport, fmt.Sprintf("read response: %s", err), err)
		e.StatusCode = res.StatusCode
		return nil, e
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		e := newError(KindRemoteAPI, remoteMessage(raw), nil)
		e.StatusCode = res.StatusCode
		return nil, e
	}

	var out Response
	if err = json.Unmarshal(raw, &out); err != nil {
		e := newError(KindResponseParse, err.Error(), err)
		e.StatusCode = res.StatusCode
		return nil, e
	}
	if out == nil {
		e := newError(KindResponseParse, "response body is not a JSON object", nil)
		e.StatusCode = res.StatusCode
		return nil, e
	}
	return out, nil
}

func (c *Client) endpoint(destinationID string) string {
	return fmt.Sprintf("%s/%s/%s/events", c.baseURL, c.apiVersion, url.PathEscape(destinationID))
}

func remoteMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return string(raw)
}
