// Package viz serves the state of the walk to external renderers: the static
// geometry of the path and plan, a websocket feed of loop snapshots, and
// metrics. It's read-only; nothing a client sends changes the walk.
package viz

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qdwalker/quadruped"
	"github.com/qdwalker/quadruped/components/control"
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/curve"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "viz",
})

const (
	// Distance either side of the path to draw its edges.
	outlineOffset = 10.0

	// Snapshots queued per client before they start being dropped.
	clientBuffer = 16

	writeTimeout = 5 * time.Second
)

// Geometry is everything about the walk which doesn't change while it runs.
type Geometry struct {
	Session   string                         `json:"session"`
	Length    float64                        `json:"length"`
	Outline   curve.Outline                  `json:"outline"`
	Stances   [][legs.NumLegs]math3d.Vector4 `json:"stances"`
	Centroids []math3d.Vector4               `json:"centroids"`
}

type Message struct {
	Type     string            `json:"type"`
	Session  string            `json:"session,omitempty"`
	Snapshot *control.Snapshot `json:"snapshot,omitempty"`
}

type Server struct {
	session  string
	geometry []byte
	gatherer prometheus.Gatherer
	clock    clock.Clock
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]chan []byte
	last    time.Time
}

// New builds the geometry for q. Snapshots are published at most at the loop's
// frame rate.
func New(q *quadruped.Quadruped, session string, gatherer prometheus.Gatherer) (*Server, error) {
	g := Geometry{
		Session:   session,
		Length:    q.Curve.Length(),
		Outline:   q.Curve.Polyline(q.Reparameterizer.Resolution(), outlineOffset),
		Centroids: q.Plan.Centroids,
	}

	for _, s := range q.Plan.Stances {
		g.Stances = append(g.Stances, s.Polygon())
	}

	b, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "marshal geometry")
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		session:  session,
		geometry: b,
		gatherer: gatherer,
		clock:    q.Clock,
		interval: q.Config.Loop.Period(),
		clients:  map[uuid.UUID]chan []byte{},
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/geometry", s.handleGeometry)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "viz")

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Publish sends the snapshot to every client, unless one was sent less than a
// frame ago. Slow clients miss snapshots rather than holding up the loop.
func (s *Server) Publish(snap control.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.interval {
		return
	}
	s.last = now

	if len(s.clients) == 0 {
		return
	}

	b, err := json.Marshal(Message{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		log.Errorf("marshal snapshot: %s", err)
		return
	}

	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			log.Debugf("client %s: dropping snapshot", id)
		}
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(s.geometry); err != nil {
		log.Debugf("write geometry: %s", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade: %s", err)
		return
	}
	defer conn.Close()

	id := uuid.New()
	ch := make(chan []byte, clientBuffer)

	hello, _ := json.Marshal(Message{Type: "hello", Session: s.session})
	ch <- hello

	s.mu.Lock()
	s.clients[id] = ch
	s.mu.Unlock()
	log.Infof("client %s connected from %s", id, r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		log.Infof("client %s disconnected", id)
	}()

	// Anything the client sends is ignored, but reading is how a close is
	// noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return

		case b := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debugf("client %s: write: %s", id, err)
				return
			}
		}
	}
}
