package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the practice backend. The session cookie lives in an
// in-memory jar and is gone when the process exits.
type Client struct {
	http    *resty.Client
	baseURL string
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "orator"
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	r := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		SetCookieJar(newJar()).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	return &Client{http: r, baseURL: base}
}

func newJar() http.CookieJar {
	jar, _ := cookiejar.New(nil)
	return jar
}

func (c *Client) BaseURL() string { return c.baseURL }

// URL resolves a site path such as /report against the server.
func (c *Client) URL(path string) string { return c.baseURL + path }

// response is a completed exchange with its parsed JSON envelope.
type response struct {
	status    int
	body      []byte
	metrics   *NetworkMetrics
	requestID string
}

func (c *Client) request(ctx context.Context) (*resty.Request, string) {
	id := uuid.NewString()
	return c.http.R().
		SetContext(ctx).
		EnableTrace().
		SetHeader(requestIDHeader, id), id
}

// exchange runs a prepared request and applies the error taxonomy shared by
// every endpoint: 401 is ErrAuthRequired unless authOK, transport errors and
// non-2xx responses without JSON are NetworkError.
func (c *Client) exchange(op string, req *resty.Request, id, method, path string, authOK bool) (*response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	out := &response{
		status:    resp.StatusCode(),
		body:      resp.Body(),
		metrics:   metricsFrom(resp.Request.TraceInfo()),
		requestID: id,
	}
	out.metrics.Status = out.status
	if out.status == http.StatusUnauthorized && !authOK {
		return out, ErrAuthRequired
	}
	if out.status >= 300 && !json.Valid(out.body) {
		return out, &NetworkError{Op: op, Status: out.status, Err: errors.New(http.StatusText(out.status))}
	}
	return out, nil
}

// envelope is the success/error pair every endpoint returns.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func decode(op string, r *response, v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &NetworkError{Op: op, Status: r.status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// requireSuccess accepts only an explicit success:true.
func requireSuccess(op string, r *response, env envelope) error {
	if env.Success != nil && *env.Success {
		return nil
	}
	return &RejectedError{Op: op, Status: r.status, Message: env.Error}
}

// rejectFalse accepts anything except an explicit success:false.
func rejectFalse(op string, r *response, env envelope) error {
	if env.Success != nil && !*env.Success {
		return &RejectedError{Op: op, Status: r.status, Message: env.Error}
	}
	return nil
}
