package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	url  string
	http HTTPClient
}

func NewClient(url string, httpClient HTTPClient) *Client {
	return &Client{
		url:  url,
		http: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", "capirelay-tests")

	return req, nil
}

type conversionReq struct {
	EventName string         `json:"event_name"`
	EventID   string         `json:"event_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

type response struct {
	StatusCode int
	Body       map[string]any
}

func (c *Client) post(ctx context.Context, path string, params conversionReq) (response, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("could not create request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("could not send request: %w", err)
	}
	defer res.Body.Close()

	out := response{StatusCode: res.StatusCode}
	if err = json.NewDecoder(res.Body).Decode(&out.Body); err != nil {
		return response{}, fmt.Errorf("could not decode response: %w", err)
	}
	return out, nil
}

func (c *Client) Track(ctx context.Context, params conversionReq) (response, error) {
	return c.post(ctx, "/v1/conversions", params)
}

func (c *Client) Send(ctx context.Context, params conversionReq) (response, error) {
	return c.post(ctx, "/v1/conversions/send", params)
}
