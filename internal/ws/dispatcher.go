package ws

import (
	"encoding/json"

	"quizduel/internal/match"

	"github.com/sirupsen/logrus"
)

// Sessions is the match manager as seen by the transport
type Sessions interface {
	Connect(c match.Conn)
	Disconnect(connID string)
	CreateRoom(c match.Conn, req match.CreateRoomRequest)
	JoinRoom(c match.Conn, req match.JoinRoomRequest)
	PlayerAnswer(c match.Conn, req match.PlayerAnswerRequest)
	RequestScores(c match.Conn, req match.RoomRequest)
	GameCompleted(c match.Conn, req match.RoomRequest)
}

const (
	msgUnknownEvent = "Unknown event."
	msgBadPayload   = "Malformed message."
)

// Dispatcher decodes inbound frames and routes them to the session manager
type Dispatcher struct {
	sessions Sessions
	log      logrus.FieldLogger
}

func NewDispatcher(sessions Sessions, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{sessions: sessions, log: log.WithField("component", "ws")}
}

// Connect registers c with the manager
func (d *Dispatcher) Connect(c *Client) { d.sessions.Connect(c) }

func (d *Dispatcher) Disconnect(c *Client) { d.sessions.Disconnect(c.ID()) }

func (d *Dispatcher) reject(c match.Conn, msg string) {
	c.Send(match.EventErrorMessage, match.ErrorMessage{Message: msg})
}

// decode fills v from data; a missing data field decodes as an empty object
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Dispatch handles one raw frame from c
func (d *Dispatcher) Dispatch(c *Client, raw []byte) {
	logCtx := d.log.WithField("conn_id", c.ID())

	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
		logCtx.WithError(err).Debug("malformed frame")
		d.reject(c, msgBadPayload)
		return
	}
	logCtx = logCtx.WithField("event", f.Event)

	bad := func(err error) {
		logCtx.WithError(err).Debug("malformed payload")
		d.reject(c, msgBadPayload)
	}

	switch f.Event {
	case match.EventCreateRoom:
		var req match.CreateRoomRequest
		if err := decode(f.Data, &req); err != nil {
			bad(err)
			return
		}
		if id := c.Identity(); id != nil {
			req.UserID, req.Username, req.Authenticated = id.UserID, id.Username, true
		}
		d.sessions.CreateRoom(c, req)

	case match.EventJoinRoom:
		var req match.JoinRoomRequest
		if err := decode(f.Data, &req); err != nil {
			bad(err)
			return
		}
		if id := c.Identity(); id != nil {
			req.UserID, req.Username, req.Authenticated = id.UserID, id.Username, true
		}
		d.sessions.JoinRoom(c, req)

	case match.EventPlayerAnswer:
		var req match.PlayerAnswerRequest
		if err := decode(f.Data, &req); err != nil {
			bad(err)
			return
		}
		d.sessions.PlayerAnswer(c, req)

	case match.EventRequestScores:
		var req match.RoomRequest
		if err := decode(f.Data, &req); err != nil {
			bad(err)
			return
		}
		d.sessions.RequestScores(c, req)

	case match.EventGameCompleted:
		var req match.RoomRequest
		if err := decode(f.Data, &req); err != nil {
			bad(err)
			return
		}
		d.sessions.GameCompleted(c, req)

	default:
		logCtx.Debug("unknown event")
		d.reject(c, msgUnknownEvent)
	}
}
