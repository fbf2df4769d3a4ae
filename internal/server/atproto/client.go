// Package atproto is the backend's XRPC client for PDS session management:
// createSession on login and refreshSession on token rotation.
package atproto

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/taurisky/taurisky/internal/logging"
	"golang.org/x/time/rate"
)

const (
	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
)

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	Timeout       time.Duration // per request, default 30s
	RatePerSecond float64       // requests per second to one PDS, default 5
	Burst         int           // default 10
	RetryBase     time.Duration // first backoff for network retries, default 1s
	MaxAttempts   uint64        // createSession attempts on network errors, default 3
	AllowInsecure bool          // accept http:// servers
	Logger        logging.Logger
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 5
	}
	if o.Burst <= 0 {
		o.Burst = 10
	}
	if o.RetryBase <= 0 {
		o.RetryBase = time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to one PDS.
type Client struct {
	serverURL string
	http      *resty.Client
	limiter   *rate.Limiter
	opts      Options
	logger    logging.Logger
}

func NewClient(serverURL string, opts Options) (*Client, error) {
	opts.applyDefaults()

	u, err := NormalizeServerURL(serverURL, opts.AllowInsecure)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(u).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		serverURL: u,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		opts:      opts,
		logger:    opts.Logger.With("module", "atproto", "server", u),
	}, nil
}

func (c *Client) ServerURL() string {
	return c.serverURL
}

// CreateSession exchanges an identifier (handle or email) and password for a
// session.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var session Session
	var xerr xrpcError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"identifier": identifier, "password": password}).
		SetResult(&session).
		SetError(&xerr).
		Post(createSessionPath)
	if err != nil {
		return nil, networkError(err)
	}

	if resp.IsError() {
		switch {
		case resp.StatusCode() == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: invalid handle or password", ErrInvalidCredentials)
		case resp.StatusCode() >= http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode(), errorBody(resp, xerr))
		default:
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode(), errorBody(resp, xerr))
		}
	}
	if session.AccessJwt == "" || session.DID == "" {
		return nil, fmt.Errorf("%w: failed to parse response", ErrServer)
	}

	c.logger.Debug(ctx, "session created", "did", session.DID)
	return &session, nil
}

// CreateSessionWithRetry retries CreateSession on network errors only, with
// exponential backoff starting at Options.RetryBase.
func (c *Client) CreateSessionWithRetry(ctx context.Context, identifier, password string) (*Session, error) {
	var session *Session

	backoff := retry.WithMaxRetries(c.opts.MaxAttempts-1, retry.NewExponential(c.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := c.CreateSession(ctx, identifier, password)
		if err != nil {
			if errors.Is(err, ErrNetwork) {
				c.logger.Warn(ctx, "createSession failed, retrying", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// RefreshSession rotates tokens using the refresh JWT as bearer credential.
func (c *Client) RefreshSession(ctx context.Context, refreshJwt string) (*Session, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var session Session
	var xerr xrpcError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(refreshJwt).
		SetResult(&session).
		SetError(&xerr).
		Post(refreshSessionPath)
	if err != nil {
		return nil, networkError(err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusUnauthorized || xerr.Error == "ExpiredToken" {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: refresh failed with status %d", ErrServer, resp.StatusCode())
	}
	if session.AccessJwt == "" {
		return nil, fmt.Errorf("%w: failed to parse refresh response", ErrServer)
	}
	return &session, nil
}

func networkError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: request timeout", ErrNetwork)
	}
	return fmt.Errorf("%w: request failed: %v", ErrNetwork, err)
}

func errorBody(resp *resty.Response, xerr xrpcError) string {
	if xerr.Message != "" {
		return xerr.Message
	}
	if xerr.Error != "" {
		return xerr.Error
	}
	if body := resp.String(); body != "" {
		return body
	}
	return "unknown error"
}
