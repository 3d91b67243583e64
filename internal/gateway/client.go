package gateway

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

	"github.com/DanielPopoola/eventpay/internal/domain"
)

// ErrorDecoder extracts a provider error code and message from a failed response body.
type ErrorDecoder func(statusCode int, body []byte) (code, message string)

// RequestSigner adds provider authentication to an outgoing request.
type RequestSigner func(req *http.Request, body []byte) error

// Client is the HTTP plumbing shared by adapters.
type Client struct {
	gateway    domain.Gateway
	baseURL    string
	httpClient *http.Client
	decodeErr  ErrorDecoder
	sign       RequestSigner
}

type ClientOption func(*Client)

// WithHTTPClient replaces the transport, e.g. with an OAuth2-aware client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithErrorDecoder(d ErrorDecoder) ClientOption {
	return func(c *Client) {
		c.decodeErr = d
	}
}

func WithSigner(s RequestSigner) ClientOption {
	return func(c *Client) {
		c.sign = s
	}
}

func NewClient(g domain.Gateway, baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		gateway:    g,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		decodeErr:  defaultErrorDecoder,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// SendJSON sends reqBody as JSON and decodes the response into Resp.
func SendJSON[Req any, Resp any](ctx context.Context, c *Client, method, path string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var body []byte
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		body = jsonData
	}

	var resp Resp
	if err := c.do(ctx, method, path, "application/json", body, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendForm sends form as application/x-www-form-urlencoded and decodes the response into Resp.
func SendForm[Resp any](ctx context.Context, c *Client, method, path string, form url.Values, idempotencyKey string) (*Resp, error) {
	var body []byte
	if form != nil {
		body = []byte(form.Encode())
	}

	var resp Resp
	if err := c.do(ctx, method, path, "application/x-www-form-urlencoded", body, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, idempotencyKey string, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(path), bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.sign != nil {
		if err := c.sign(httpReq, body); err != nil {
			return fmt.Errorf("error signing request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.gateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		code, message := c.decodeErr(resp.StatusCode, respBody)
		return &Error{
			Gateway:    c.gateway,
			Code:       code,
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding json response: %w", err)
	}
	return nil
}

func defaultErrorDecoder(statusCode int, body []byte) (string, string) {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return http.StatusText(statusCode), strings.TrimSpace(string(body))
	}
	return payload.Error, payload.Message
}
