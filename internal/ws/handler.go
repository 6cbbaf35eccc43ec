package ws

import (
	"net/http"
	"net/url"
	"strings"

	"quizduel/internal/auth"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// TokenParser verifies session tokens presented on the handshake
type TokenParser interface {
	Parse(tok string) (*auth.Claims, error)
}

// Handler upgrades GET /ws and runs a client per connection
type Handler struct {
	upgrader   websocket.Upgrader
	dispatcher *Dispatcher
	tokens     TokenParser
	log        logrus.FieldLogger
}

// NewHandler builds the upgrade handler; tokens may be nil to accept anonymous players only
func NewHandler(d *Dispatcher, tokens TokenParser, allowedOrigins []string, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		dispatcher: d,
		tokens:     tokens,
		log:        log.WithField("component", "ws"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set[strings.ToLower(strings.TrimRight(origin, "/"))]
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var identity *Identity
	if tok := auth.TokenFromRequest(r); tok != "" {
		if h.tokens == nil {
			http.Error(w, "authentication not available", http.StatusUnauthorized)
			return
		}
		claims, err := h.tokens.Parse(tok)
		if err != nil {
			h.log.WithError(err).Debug("rejected websocket token")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		identity = &Identity{UserID: claims.Subject, Username: claims.Name}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := newClient(conn, identity, h.log)
	h.dispatcher.Connect(c)
	c.log.WithField("remote_addr", r.RemoteAddr).Info("client connected")

	go c.WritePump()
	go c.ReadPump(h.dispatcher)
}
