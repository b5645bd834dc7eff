package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/livetemplate/studio/internal/builder"
	"github.com/livetemplate/studio/internal/codegen"
	"github.com/livetemplate/studio/internal/workspace"
)

const writeTimeout = 5 * time.Second

// errInvalid marks a well-formed message whose payload failed validation.
// Such messages are dropped without a reply.
var errInvalid = errors.New("invalid payload")

// client is one connected builder page.
type client struct {
	conn    *websocket.Conn
	session *session
	mu      sync.Mutex // serializes writes
}

func (c *client) send(env MessageEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: s.checkOrigin}
}

// checkOrigin accepts same-host pages and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, o := range s.cfg.API.GetCORSOrigins() {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// serveBuilderWS runs the builder event channel for one page. The page may
// resume an earlier session with ?session=<id>.
func (s *Server) serveBuilderWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.wsLog.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess, resumed := s.sessions.acquire(r.URL.Query().Get("session"))
	c := &client{conn: conn, session: sess}
	s.register(c)
	defer s.unregister(c)

	log := s.wsLog.With(zap.String("session", sess.id))
	log.Debug("client connected", zap.Bool("resumed", resumed))

	if err := s.sendState(c); err != nil {
		log.Warn("initial state failed", zap.Error(err))
		return
	}
	if err := s.sendBuffers(c, s.workspace.Snapshot()); err != nil {
		log.Warn("initial buffers failed", zap.Error(err))
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read failed", zap.Error(err))
			}
			log.Debug("client disconnected")
			return
		}

		var env MessageEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Debug("malformed message", zap.Error(err))
			s.sendError(c, "malformed message")
			continue
		}

		changed, err := s.handleAction(r.Context(), sess, env)
		s.sessions.touch(sess)
		switch {
		case errors.Is(err, errInvalid):
			log.Debug("dropped message", zap.String("action", env.Action), zap.Error(err))
			continue
		case err != nil:
			log.Warn("action failed", zap.String("action", env.Action), zap.Error(err))
			s.sendError(c, err.Error())
			continue
		}
		if changed {
			if err := s.sendState(c); err != nil {
				log.Warn("send state failed", zap.Error(err))
				return
			}
		}
	}
}

// handleAction applies one inbound message to the session and reports
// whether the builder state changed.
func (s *Server) handleAction(ctx context.Context, sess *session, env MessageEnvelope) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	st := sess.state

	switch env.Action {
	case ActionPointerDown:
		var d pointerDownData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.Dispatch(builder.PointerDown{ElementID: d.ID, Pointer: builder.Coord{X: d.X, Y: d.Y}}), nil

	case ActionPointerMove:
		var d pointerMoveData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.Dispatch(builder.PointerMove{
			Pointer: builder.Coord{X: d.X, Y: d.Y},
			Canvas:  builder.Coord{X: d.CanvasX, Y: d.CanvasY},
		}), nil

	case ActionPointerUp:
		return st.Dispatch(builder.PointerUp{}), nil

	case ActionCanvasDown:
		return st.Dispatch(builder.CanvasDown{}), nil

	case ActionPick:
		var d idData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.Dispatch(builder.Pick{ElementID: d.ID}), nil

	case ActionAdd:
		var d addData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		_, ok := st.AddElement(builder.Kind(d.Type), d.Content, d.Href)
		return ok, nil

	case ActionUpdate:
		var d updateData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.UpdateStyle(d.ID, d.Patch), nil

	case ActionEdit:
		var d editData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.Dispatch(builder.EditSelected{Patch: d.Patch}), nil

	case ActionMove:
		var d moveData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.MoveElement(d.ID, d.X, d.Y), nil

	case ActionDelete:
		var d idData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		return st.DeleteElement(d.ID), nil

	case ActionDeleteSelected:
		return st.Dispatch(builder.DeleteSelected{}), nil

	case ActionSave:
		var saveErr error
		codegen.Save(st, s.workspace.Get(workspace.Background), func(html, css string) {
			saveErr = s.workspace.ApplySave(ctx, html, css)
		})
		if saveErr != nil {
			return false, fmt.Errorf("save failed: %w", saveErr)
		}
		return false, nil

	case ActionBackground:
		var d backgroundData
		if err := s.decode(env.Data, &d); err != nil {
			return false, err
		}
		if err := s.workspace.SetBackground(ctx, d.Color); err != nil {
			return false, fmt.Errorf("background change failed: %w", err)
		}
		return false, nil
	}

	return false, fmt.Errorf("unknown action %q", env.Action)
}

// decode unmarshals and validates a payload. Any failure is errInvalid.
func (s *Server) decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	return nil
}

func (s *Server) sendState(c *client) error {
	c.session.mu.Lock()
	payload := statePayload{Session: c.session.id, Snapshot: c.session.state.Snapshot()}
	c.session.mu.Unlock()

	env, err := envelope(ActionState, payload)
	if err != nil {
		return err
	}
	return c.send(env)
}

func (s *Server) sendBuffers(c *client, snap workspace.Snapshot) error {
	env, err := envelope(ActionBuffers, buffersPayload{Project: s.workspace.Project(), Snapshot: snap})
	if err != nil {
		return err
	}
	return c.send(env)
}

func (s *Server) sendError(c *client, message string) {
	env, err := envelope(ActionError, errorPayload{Message: message})
	if err != nil {
		return
	}
	if err := c.send(env); err != nil {
		s.wsLog.Debug("send error failed", zap.Error(err))
	}
}

func (s *Server) register(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c] = true
}

func (s *Server) unregister(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c)
}

// ClientCount returns the number of connected builder pages.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// broadcastBuffers pushes fresh buffers to every connected page.
func (s *Server) broadcastBuffers(snap workspace.Snapshot, changed []workspace.Key) {
	s.clientsMu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	s.wsLog.Debug("buffers changed", zap.Any("keys", changed), zap.Int("clients", len(clients)))
	for _, c := range clients {
		if err := s.sendBuffers(c, snap); err != nil {
			s.wsLog.Debug("broadcast failed", zap.Error(err))
		}
	}
}
