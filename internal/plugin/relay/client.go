package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Relay methods.
const (
	MethodSignIn      = "signIn"
	MethodGetAccounts = "getAccounts"
)

// Reply error codes with defined meaning.
const (
	CodeRejected    = "rejected"
	CodeUnsupported = "unsupported"
)

// maxReplyBytes bounds a single relay frame.
const maxReplyBytes = 1 << 20

var (
	errBadScheme  = errors.New("relay url must use ws or wss")
	errBadAccount = errors.New("relay returned an invalid account")
)

// Request is sent to the relay.
type Request struct {
	ID      string       `json:"id"`
	Method  string       `json:"method"`
	Network near.Network `json:"network"`
}

// ReplyError is the error member of a relay reply.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *ReplyError) Error() string {
	if e.Message == "" {
		return "relay: " + e.Code
	}
	return "relay: " + e.Code + ": " + e.Message
}

// Reply is the relay's answer to a Request with the same id.
type Reply struct {
	ID       string          `json:"id"`
	Accounts []near.Account  `json:"accounts,omitempty"`
	Proof    json.RawMessage `json:"proof,omitempty"`
	Error    *ReplyError     `json:"error,omitempty"`
}

// Client performs request/reply round trips over a websocket relay.
// Each call dials a fresh connection.
type Client struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration
	limiter *RateLimiter
	logger  *config.Logger
	metrics *metrics.Metrics
}

// NewClient validates rawURL and creates a client. timeout bounds one round
// trip, including the wait for the user to approve in the wallet.
func NewClient(rawURL string, timeout time.Duration, limiter *RateLimiter, logger *config.Logger, m *metrics.Metrics) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, connerr.WithCause(connerr.ErrRelay, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		err := connerr.WithDetails(connerr.WithCause(connerr.ErrRelay, errBadScheme), map[string]string{"url": rawURL})
		return nil, connerr.WithSuggestion(err, "use a ws:// or wss:// relay url")
	}
	if limiter == nil {
		limiter = NewRateLimiter(config.DefaultRelayRatePerSecond, config.DefaultRelayBurst)
	}
	if m == nil {
		m = metrics.Global
	}

	return &Client{
		url:     u.String(),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		timeout: timeout,
		limiter: limiter,
		logger:  logger,
		metrics: m,
	}, nil
}

// URL returns the relay url.
func (c *Client) URL() string { return c.url }

// Do sends one request and waits for the matching reply. Replies carrying
// other ids are skipped.
func (c *Client) Do(ctx context.Context, method string, network near.Network) (*Reply, error) {
	start := time.Now()
	reply, err := c.roundTrip(ctx, method, network)
	c.metrics.RecordRelayRequest(time.Since(start), err)
	if err != nil {
		c.logger.Error("relay %s %s: %v", method, c.url, err)
		return nil, err
	}
	return reply, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, network near.Network) (*Reply, error) {
	if err := c.limiter.Wait(ctx, c.url); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, connerr.WithCause(connerr.ErrRelay, err)
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxReplyBytes)

	// Unblock reads when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	req := Request{ID: uuid.NewString(), Method: method, Network: network}
	c.logger.Debug("relay: sending %s %s on %s", req.ID, method, network)
	if err := conn.WriteJSON(req); err != nil {
		return nil, connerr.WithCause(connerr.ErrRelay, err)
	}

	for {
		var reply Reply
		if err := conn.ReadJSON(&reply); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, connerr.WithCause(connerr.ErrRelay, ctxErr)
			}
			return nil, connerr.WithCause(connerr.ErrRelay, err)
		}
		if reply.ID != req.ID {
			c.logger.Debug("relay: skipping reply for %s", reply.ID)
			continue
		}
		for _, a := range reply.Accounts {
			if err := near.ValidateAccountID(a.AccountID); err != nil {
				return nil, connerr.WithCause(connerr.ErrRelay, errors.Join(errBadAccount, err))
			}
		}
		return &reply, nil
	}
}
