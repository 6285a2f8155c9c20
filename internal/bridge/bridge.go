// Package bridge connects a tuning session to the driving simulator over a
// websocket.
//
// The simulator sends one telemetry event per frame. Each one is stepped
// through the session and answered with a steer event. When a window is
// aborted because the car left the track the bridge also sends a reset event
// so the simulator restarts the lap. Frames without data mean the simulator
// is in manual mode and are answered with a manual event.
package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"charm.land/log/v2"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg      config.Server
	logger   *log.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	// mu serializes session steps across connections.
	mu   sync.Mutex
	sess *session.Session

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

func New(cfg config.Server, sess *session.Session, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		sess:   sess,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	path := s.cfg.Path
	if path == "" {
		path = config.DefaultPath
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.ServeWS)
	return mux
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts simulator connections on ln until ctx is cancelled, then
// shuts the server down and closes open connections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	s.logger.Info("listening", "addr", ln.Addr().String(), "path", s.cfg.Path)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeConns()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	s.logger.Info("connected", "remote", r.RemoteAddr)
	defer s.logger.Info("disconnected", "remote", r.RemoteAddr)

	for {
		kind, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		for _, reply := range s.handleFrame(frame) {
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				s.logger.Warn("write failed", "err", err)
				return
			}
		}
	}
}

// handleFrame returns the frames to send back for one incoming frame.
func (s *Server) handleFrame(frame []byte) [][]byte {
	msg, err := telemetry.Decode(frame)
	switch {
	case errors.Is(err, telemetry.ErrNotEvent):
		return nil
	case err != nil:
		s.logger.Warn("bad frame", "err", err)
		return nil
	case msg.Manual:
		return [][]byte{telemetry.EncodeManual()}
	case msg.Telemetry == nil:
		return nil
	}

	s.mu.Lock()
	tick, err := s.sess.Step(session.Sample{
		CTE:   msg.Telemetry.CTE,
		Speed: msg.Telemetry.Speed,
		At:    s.now(),
	})
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("telemetry rejected", "err", err)
		return nil
	}

	s.logger.Debug("step", "cte", msg.Telemetry.CTE, "steer", tick.Steer)
	steer, err := telemetry.EncodeSteer(tick.Steer, tick.Throttle)
	if err != nil {
		s.logger.Error("encode steer", "err", err)
		return nil
	}

	replies := [][]byte{steer}
	if tick.Window != nil && tick.Window.Outcome == session.Aborted {
		s.logger.Warn("resetting simulator", "seq", tick.Window.Seq)
		replies = append(replies, telemetry.EncodeReset())
	}
	return replies
}

// Snapshot reads the session state under the step lock.
func (s *Server) Snapshot() session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Snapshot()
}

func (s *Server) track(c *websocket.Conn) {
	s.connMu.Lock()
	s.conns[c] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrack(c *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, c)
	s.connMu.Unlock()
	c.Close()
}

func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.Close()
	}
}
