package vendors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// requestTimeout bounds every outbound vendor call. A timeout surfaces
// as that call's failure, never as a batch-level abort.
const requestTimeout = 30 * time.Second

// userAgent mimics a browser; the vendor panels reject unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"

// Client is the shared JSON HTTP client both vendor gateways are built
// on: common headers, bearer token injection from the session cache, a
// per-vendor rate limiter, and a single re-login retry on 401.
type Client struct {
	baseURL    string
	headers    map[string]string
	session    *Session
	reauth     func(ctx context.Context) (string, error)
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a Client for one vendor base URL. Extra headers are
// sent on every request; rps bounds outbound calls per second.
func NewClient(baseURL string, session *Session, headers map[string]string, rps float64) *Client {
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		baseURL: baseURL,
		headers: headers,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetReauth installs the login callback used to recover from a 401:
// the cached token is cleared, the callback obtains a fresh one, and
// the failed call is retried exactly once.
func (c *Client) SetReauth(fn func(ctx context.Context) (string, error)) {
	c.reauth = fn
}

// Get performs an authenticated GET and unmarshals the response into
// dest when dest is non-nil.
func (c *Client) Get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, _, err := c.do(ctx, http.MethodGet, path, params, nil, true)
	if err != nil {
		return err
	}
	return decodeInto(body, dest)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload, dest interface{}) error {
	body, _, err := c.do(ctx, http.MethodPost, path, nil, payload, true)
	if err != nil {
		return err
	}
	return decodeInto(body, dest)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, payload, dest interface{}) error {
	body, _, err := c.do(ctx, http.MethodPut, path, nil, payload, true)
	if err != nil {
		return err
	}
	return decodeInto(body, dest)
}

// PostAnon performs an unauthenticated POST (login calls). It never
// attaches a bearer token and never triggers the 401 retry.
func (c *Client) PostAnon(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, _, err := c.do(ctx, http.MethodPost, path, nil, payload, false)
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}, authed bool) ([]byte, int, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling body: %w", err)
		}
	}

	body, status, err := c.send(ctx, method, path, params, data, authed)
	if err != nil {
		return body, status, err
	}

	if status == http.StatusUnauthorized && authed && c.reauth != nil {
		c.session.Clear()
		token, aerr := c.reauth(ctx)
		if aerr != nil {
			return nil, status, fmt.Errorf("%w: re-login after 401: %v", ErrAuth, aerr)
		}
		c.session.Set(token)
		body, status, err = c.send(ctx, method, path, params, data, authed)
		if err != nil {
			return body, status, err
		}
	}

	if status < 200 || status >= 300 {
		return body, status, &VendorError{Status: status, Message: messageFromBody(body)}
	}
	return body, status, nil
}

// send issues one HTTP round trip. Network errors are returned as-is;
// HTTP status handling is the caller's job.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, data []byte, authed bool) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decodeInto(body []byte, dest interface{}) error {
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// parseToken probes the known token shapes of a login response in fixed
// priority order: "token", "access_token", then "data.token".
func parseToken(body []byte) (string, bool) {
	var probe struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		Data        struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	switch {
	case probe.Token != "":
		return probe.Token, true
	case probe.AccessToken != "":
		return probe.AccessToken, true
	case probe.Data.Token != "":
		return probe.Data.Token, true
	}
	return "", false
}

// messageFromBody extracts a human-readable error from a vendor error
// body: "message", then "detail", then the raw text.
func messageFromBody(body []byte) string {
	var probe struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &probe); err == nil {
		if probe.Message != "" {
			return probe.Message
		}
		if probe.Detail != "" {
			return probe.Detail
		}
	}
	return truncate(string(body), 200)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
