package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/env"
	"github.com/operaton-labs/enginebridge/internal/logging"
)

// StatusError reports an HTTP status outside the expected set. Body
// carries the raw response text as diagnostic detail.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client issues blocking REST calls against the workflow engine using
// configuration from the materialized environment. No retries, no
// backoff: a non-matching status is a hard failure.
type Client struct {
	http *resty.Client
	env  *env.Env
	log  *logging.Logger
}

// New creates a client bound to an environment.
func New(e *env.Env, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(0).
		SetHeader("User-Agent", "enginebridge/1.0")

	return &Client{
		http: httpClient,
		env:  e,
		log:  log.Component("engine"),
	}
}

// Get fetches path. Requires HTTP 200. With raw, the body text is
// returned untouched; otherwise it is parsed as JSON, an empty body
// parsing to nil.
func (c *Client) Get(ctx context.Context, path string, raw bool) (any, error) {
	url, err := c.url(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return nil, &StatusError{Method: "GET", Path: path, Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return c.decode(resp.Body(), raw)
}

// Post sends body as JSON to path. Requires HTTP 200 or 204.
func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	return c.write(ctx, "POST", path, body)
}

// Put sends body as JSON to path. Requires HTTP 200 or 204.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.write(ctx, "PUT", path, body)
}

// Delete removes the resource at path. Requires HTTP 204.
func (c *Client) Delete(ctx context.Context, path string, raw bool) (any, error) {
	url, err := c.url(path)
	if err != nil {
		return nil, err
	}
	token, err := c.csrfToken()
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-XSRF-TOKEN", token).
		Delete(url)
	if err != nil {
		return nil, fmt.Errorf("DELETE %s: %w", path, err)
	}
	if resp.StatusCode() != 204 {
		return nil, &StatusError{Method: "DELETE", Path: path, Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return c.decode(resp.Body(), raw)
}

func (c *Client) write(ctx context.Context, method, path string, body any) (any, error) {
	url, err := c.url(path)
	if err != nil {
		return nil, err
	}
	token, err := c.csrfToken()
	if err != nil {
		return nil, err
	}

	encoded, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-XSRF-TOKEN", token).
		SetBody(encoded)

	var resp *resty.Response
	if method == "PUT" {
		resp, err = req.Put(url)
	} else {
		resp, err = req.Post(url)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 204 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return c.decode(resp.Body(), false)
}

// url builds the request URL from the materialized base. Fails with
// ConfigurationError before any network attempt when the environment is
// not loaded.
func (c *Client) url(path string) (string, error) {
	base, err := c.env.Get(env.KeyEngineAPI)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// csrfToken reads the CSRF token; absence means an empty header, the
// engine decides whether that is acceptable.
func (c *Client) csrfToken() (string, error) {
	token, _, err := c.env.Lookup(env.KeyCSRFToken)
	if err != nil {
		return "", err
	}
	return token, nil
}

// decode interprets a response body: raw text or parsed JSON, with an
// empty body mapping to nil rather than a parse failure.
func (c *Client) decode(body []byte, raw bool) (any, error) {
	if raw {
		return string(body), nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var v any
	if err := sonic.Unmarshal(body, &v); err != nil {
		c.log.Warn("engine returned unparsable JSON", zap.Error(err))
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return v, nil
}
