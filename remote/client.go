// Package remote is the typed request/response boundary to the list
// authority. Every network call of the application goes through a Client,
// which owns the bearer credential and classifies failures into the error
// kinds of package core. Nothing is retried here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is used when no authority URL is configured.
const DefaultBaseURL = "http://localhost:3001/api"

// Client talks JSON over HTTP to the authority.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.Mutex
	credential     string
	generation     uint64
	notified       bool
	onUnauthorized func()
}

// New creates a Client for the authority rooted at baseURL. A nil
// httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the authority root this client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetCredential replaces the bearer token used by subsequent requests. An
// empty token removes it. Requests already on the wire are not affected.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = token
	c.generation++
	c.notified = false
}

// Credential returns the current bearer token.
func (c *Client) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// SetUnauthorizedHandler registers the callback fired on a 401. Only one
// callback is kept; the last registration wins.
//
// The callback fires once per installed credential: the first 401 seen
// while a credential is current fires it, later 401s for that same
// credential do not until SetCredential is called again.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Do sends one request and decodes a successful JSON answer into out when
// out is not nil. Failures are classified as core.ErrUnauthorized,
// *core.ServerRejectedError or core.ErrConnectionFailed.
func (c *Client) Do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, endpoint, err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	credential, generation := c.credential, c.generation
	c.mu.Unlock()
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	log := logrus.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Request to authority failed")
		return fmt.Errorf("%w: %v", core.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Warn("Failed to read authority response")
		return fmt.Errorf("%w: %v", core.ErrConnectionFailed, err)
	}
	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	switch {
	case resp.StatusCode/100 == 2:
		log.Debug("Authority request succeeded")
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			log.WithError(err).Warn("Authority answered with a non-JSON body")
			return fmt.Errorf("%w: decode response: %v", core.ErrConnectionFailed, err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		log.Warn("Authority rejected the credential")
		c.notifyUnauthorized(generation)
		return core.ErrUnauthorized

	default:
		rejected := &core.ServerRejectedError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, resp.StatusCode),
		}
		log.WithField("message", rejected.Message).Warn("Authority rejected the request")
		return rejected
	}
}

func (c *Client) notifyUnauthorized(generation uint64) {
	c.mu.Lock()
	fn := c.onUnauthorized
	if fn == nil || c.notified || c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.notified = true
	c.mu.Unlock()
	fn()
}

// errorMessage extracts the server-supplied reason from an error payload.
// The authority sends either {"message": "..."} or a validation list
// {"message": ["...", "..."]}; some proxies answer {"error": "..."}.
func errorMessage(data []byte, status int) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		var single string
		if err := json.Unmarshal(payload.Message, &single); err == nil && single != "" {
			return single
		}
		var many []string
		if err := json.Unmarshal(payload.Message, &many); err == nil && len(many) > 0 {
			return strings.Join(many, "; ")
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
