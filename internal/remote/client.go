package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nhle/task-rewards/internal/model"
)

// Client reads and writes the authoritative document over HTTP.
// Reads hit the raw document URL; writes go through a contents API that
// returns a version token (sha) and accepts a conditional replace.
// It retries with exponential backoff on HTTP 429.
type Client struct {
	documentURL string
	contentsURL string
	branch      string
	token       string
	timeout     time.Duration
	httpClient  *http.Client
	maxRetries  int
}

// NewClient creates a client for the configured document. An empty
// token leaves the client read-only.
func NewClient(cfg model.RemoteConfig, token string) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		documentURL: cfg.DocumentURL,
		contentsURL: cfg.ContentsURL,
		branch:      cfg.Branch,
		token:       token,
		timeout:     timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// Writable reports whether a write credential and a contents endpoint
// are configured.
func (c *Client) Writable() bool {
	return c.token != "" && c.contentsURL != ""
}

// Fetch returns the whole document body.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c.documentURL == "" {
		return nil, ErrNoDocumentURL
	}

	status, body, err := c.do(ctx, OpFetch, http.MethodGet, c.documentURL, nil, false)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(OpFetch, status, body)
	}
	return body, nil
}

// Version returns the current version token of the stored document.
// A missing document yields an empty token and no error.
func (c *Client) Version(ctx context.Context) (string, error) {
	if !c.Writable() {
		return "", ErrReadOnly
	}

	target, err := c.versionURL()
	if err != nil {
		return "", err
	}

	status, body, err := c.do(ctx, OpVersion, http.MethodGet, target, nil, true)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	if status < 200 || status >= 300 {
		return "", statusError(OpVersion, status, body)
	}

	var meta contentMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", &Error{Op: OpVersion, Err: fmt.Errorf("decoding metadata: %w", err)}
	}
	return meta.SHA, nil
}

// versionURL adds the branch as the ref query parameter, keeping any
// query the contents URL already carries.
func (c *Client) versionURL() (string, error) {
	if c.branch == "" {
		return c.contentsURL, nil
	}
	u, err := url.Parse(c.contentsURL)
	if err != nil {
		return "", &Error{Op: OpVersion, Err: fmt.Errorf("parsing contents URL: %w", err)}
	}
	q := u.Query()
	q.Set("ref", c.branch)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Write replaces the stored document with content. The sha from Version
// makes the write conditional; an empty sha creates the file. It returns
// the new version token.
func (c *Client) Write(ctx context.Context, content []byte, message, sha string) (string, error) {
	if !c.Writable() {
		return "", ErrReadOnly
	}

	req := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.branch,
	}

	status, body, err := c.do(ctx, OpWrite, http.MethodPut, c.contentsURL, req, true)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", statusError(OpWrite, status, body)
	}

	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// The write went through; only the echo is unreadable.
		return "", nil
	}
	return resp.Content.SHA, nil
}

// do builds and sends one request under the client timeout, retrying on
// 429. It returns the final status and body; non-2xx is not an error here.
func (c *Client) do(
	ctx context.Context,
	op Op,
	method string,
	target string,
	body interface{},
	auth bool,
) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, &Error{Op: op, Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		payload = data
	}

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return 0, nil, &Error{Op: op, Err: fmt.Errorf("creating request: %w", err)}
		}

		req.Header.Set("Accept", "application/json")
		if auth {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, &Error{Op: op, Err: fmt.Errorf("executing request %s %s: %w", method, target, err)}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return 0, nil, &Error{Op: op, Err: fmt.Errorf("reading response body: %w", readErr)}
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp.StatusCode, respBody, nil
		}

		select {
		case <-ctx.Done():
			return 0, nil, &Error{Op: op, Err: ctx.Err()}
		case <-time.After(retryAfterDuration(resp, attempt)):
		}
	}
}

// statusError builds an Error from a non-2xx response, using the API's
// error message when the body carries one.
func statusError(op Op, status int, body []byte) error {
	var apiErr errorResponse
	msg := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	} else if len(body) > 0 && len(body) <= 200 {
		msg = string(bytes.TrimSpace(body))
	}
	return &Error{Op: op, StatusCode: status, Message: msg}
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
