package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/westapp/estatehub-core/internal/auth"
	"github.com/westapp/estatehub-core/internal/infrastructure/config"
	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
)

// Notification is a server-pushed message for the signed-in identity.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Priority  string         `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SessionControl is the slice of the session manager the stream needs.
type SessionControl interface {
	AuthToken() string
	Invalidate(ctx context.Context) error
}

// Stream is a websocket client for the notification feed.
type Stream struct {
	url          string
	pingInterval time.Duration
	pongTimeout  time.Duration
	sessions     SessionControl
	logger       *logging.Logger
}

// NewStream builds a stream client. baseURL is the API gateway root; the
// websocket URL is derived from it plus the configured path.
func NewStream(baseURL string, cfg config.NotificationsConfig, sessions SessionControl, logger *logging.Logger) *Stream {
	return &Stream{
		url:          wsURL(baseURL, cfg.Path),
		pingInterval: time.Duration(cfg.PingInterval) * time.Second,
		pongTimeout:  time.Duration(cfg.PongTimeout) * time.Second,
		sessions:     sessions,
		logger:       logger.With("component", "notify"),
	}
}

// wsURL rewrites an http(s) base URL into its ws(s) equivalent.
func wsURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}

// Run connects and forwards notifications to out until the context is
// cancelled or the connection fails. A 401 handshake tears the session
// down and returns auth.ErrSessionExpired. Unparseable messages are
// logged and skipped rather than killing the stream.
func (s *Stream) Run(ctx context.Context, out chan<- Notification) error {
	token := s.sessions.AuthToken()
	if token == "" {
		return auth.ErrNotAuthenticated
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			s.logger.Warn("notification stream rejected the token")
			if tdErr := s.sessions.Invalidate(ctx); tdErr != nil {
				s.logger.Error("forced teardown failed", "error", tdErr)
			}
			return auth.ErrSessionExpired
		}
		return fmt.Errorf("dialling notification stream: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	s.logger.Info("notification stream connected")

	if err := conn.SetReadDeadline(time.Now().Add(s.pingInterval + s.pongTimeout)); err != nil {
		return fmt.Errorf("setting read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pingInterval + s.pongTimeout))
	})

	// Control frames may be written concurrently with the read loop.
	go s.keepAlive(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("notification stream closed by server")
				return nil
			}
			return fmt.Errorf("reading notification stream: %w", err)
		}

		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			s.logger.Warn("skipping unparseable notification", "error", err)
			continue
		}

		select {
		case out <- n:
		case <-ctx.Done():
			return nil
		}
	}
}

// keepAlive pings the server on a timer and sends a close frame when the
// context ends, so the read loop unblocks promptly.
func (s *Stream) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close() //nolint:errcheck
			return
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}
