package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fkoller/seamweave/pkg/workflow"
)

// Default timing parameters, applied by [New] when the corresponding
// Config field is zero.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = time.Second
	DefaultMaxPollTime  = 180 * time.Second
)

// Config holds the per-client connection and timing parameters.
type Config struct {
	// ServerURL is the base URL of the inference server, with or without
	// a trailing slash.
	ServerURL string

	// ClientID scopes submissions to this client on the server's queue.
	// Defaults to a generated "seamweave-<uuid>" identifier.
	ClientID string

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// PollInterval is the delay between status checks.
	PollInterval time.Duration

	// MaxPollTime bounds the whole poll loop per job, wall clock.
	MaxPollTime time.Duration
}

// Client talks to one inference server. It owns no shared mutable state
// beyond its timing configuration and is safe to reuse across jobs.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger
}

// New creates a client for the given server. Zero timing fields take the
// package defaults; a nil logger discards output.
func New(cfg Config, logger *log.Logger) *Client {
	if cfg.ClientID == "" {
		cfg.ClientID = "seamweave-" + uuid.NewString()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollTime == 0 {
		cfg.MaxPollTime = DefaultMaxPollTime
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Submit posts a compiled prompt to the server's queue and returns the
// prompt id to poll. A 2xx response without a prompt id fails with
// [ErrNoPromptID].
func (c *Client) Submit(ctx context.Context, prompt workflow.Prompt) (string, error) {
	url := c.endpoint("prompt")
	c.logger.Debug("submitting workflow", "url", url)

	body, err := json.Marshal(map[string]any{
		"prompt":    prompt,
		"client_id": c.cfg.ClientID,
	})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httpError("submit", resp)
	}

	var parsed struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if parsed.PromptID == "" {
		return "", ErrNoPromptID
	}
	c.logger.Debug("received prompt id", "prompt_id", parsed.PromptID)
	return parsed.PromptID, nil
}

// Poll watches a submitted job until it completes, fails, times out, or
// is cancelled. stop is evaluated first on every iteration; tick is a
// cooperative yield callback whose errors are swallowed. A 404 from the
// history endpoint means the job is not queued yet and counts as pending.
// Either callback may be nil.
func (c *Client) Poll(ctx context.Context, promptID string, stop func() bool, tick func() error) (*Result, error) {
	deadline := time.Now().Add(c.cfg.MaxPollTime)
	c.logger.Debug("polling result", "prompt_id", promptID)

	pendingLogged := false
	for time.Now().Before(deadline) {
		if stop != nil && stop() {
			return nil, fmt.Errorf("poll %s: %w", promptID, ErrCancelled)
		}
		if tick != nil {
			if err := tick(); err != nil {
				c.logger.Debug("tick callback failed", "err", err)
			}
		}

		res, err := c.fetchHistory(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			switch res.State() {
			case StateDone:
				c.logger.Debug("result ready", "prompt_id", promptID)
				return res, nil
			case StateError:
				return nil, &ExecutionError{PromptID: promptID}
			}
			if !pendingLogged {
				c.logger.Debug("result pending, waiting", "prompt_id", promptID)
				pendingLogged = true
			}
		} else {
			c.logger.Debug("prompt not found yet, retrying", "prompt_id", promptID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
	return nil, fmt.Errorf("poll %s: %w", promptID, ErrTimeout)
}

// PollOnce performs a single status check without sleeping or retrying.
// Callers driving their own loop get the classified state and, when the
// server knows the job, its history record.
func (c *Client) PollOnce(ctx context.Context, promptID string) (State, *Result, error) {
	res, err := c.fetchHistory(ctx, promptID)
	if err != nil {
		return StatePending, nil, err
	}
	if res == nil {
		return StatePending, nil, nil
	}
	return res.State(), res, nil
}

// Interrupt asks the server to abort in-flight work. Cancellation is
// advisory: failures are logged and never returned.
func (c *Client) Interrupt(ctx context.Context) {
	url := c.endpoint("interrupt")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		c.logger.Warn("interrupt request failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("interrupt request failed", "err", err)
		return
	}
	resp.Body.Close()
	c.logger.Debug("sent interrupt", "status", resp.StatusCode)
}

// fetchHistory retrieves and normalizes one history record. A 404 returns
// (nil, nil): the pending-because-unknown state. Bodies wrapped under the
// prompt's own key are unwrapped one level and restamped.
func (c *Client) fetchHistory(ctx context.Context, promptID string) (*Result, error) {
	url := c.endpoint("history/" + promptID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", promptID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError("poll "+promptID, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// Some servers wrap the record under its own prompt id.
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if inner, ok := wrapper[promptID]; ok {
		raw = inner
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode history record: %w", err)
	}
	if res.PromptID == "" {
		res.PromptID = promptID
	}
	return &res, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.ServerURL, "/") + "/" + path
}

// httpError builds an error from a non-2xx response, appending the
// response body when the server sent one.
func httpError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("%s: HTTP %d", op, resp.StatusCode)
	if len(bytes.TrimSpace(detail)) > 0 {
		msg = fmt.Sprintf("%s - %s", msg, bytes.TrimSpace(detail))
	}
	return fmt.Errorf("%s", msg)
}
