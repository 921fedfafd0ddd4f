// Package net shares a live board read-only with viewers on the local
// network: frames are pushed over a websocket and the stream is announced
// with mDNS.
package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"sync"
	"time"

	"DoodleBoard/internal/logging"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var log = logging.For("net")

// StreamPath is the websocket endpoint of a share server.
const StreamPath = "/stream"

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hello is the first, text message sent to a viewer. Every following
// message is a binary PNG frame.
type Hello struct {
	Board string `json:"board"`
	Name  string `json:"name"`
}

// viewer is one connected spectator. frames holds at most the newest
// undelivered frame.
type viewer struct {
	conn   *websocket.Conn
	frames chan []byte
	done   chan struct{}
}

// Stream pushes PNG frames of one board to every connected viewer. Viewers
// cannot send anything back; slow viewers skip frames.
type Stream struct {
	hello Hello

	mu      sync.RWMutex
	viewers map[string]*viewer
	latest  []byte

	encode chan image.Image
	closed chan struct{}
	once   sync.Once
}

// NewStream starts the frame encoder of a stream for board.
func NewStream(board, name string) *Stream {
	s := &Stream{
		hello:   Hello{Board: board, Name: name},
		viewers: make(map[string]*viewer),
		encode:  make(chan image.Image, 1),
		closed:  make(chan struct{}),
	}
	go s.encodeLoop()
	return s
}

// Publish queues img for the viewers. Only the newest pending frame is
// kept. It never blocks.
func (s *Stream) Publish(img image.Image) {
	select {
	case <-s.closed:
		return
	default:
	}
	for {
		select {
		case s.encode <- img:
			return
		default:
		}
		select {
		case <-s.encode:
		default:
		}
	}
}

func (s *Stream) encodeLoop() {
	var buf bytes.Buffer
	for {
		select {
		case <-s.closed:
			return
		case img := <-s.encode:
			buf.Reset()
			if err := png.Encode(&buf, img); err != nil {
				log.Warn("frame encode failed", "err", err)
				continue
			}
			frame := bytes.Clone(buf.Bytes())
			s.mu.Lock()
			s.latest = frame
			for _, v := range s.viewers {
				offer(v.frames, frame)
			}
			s.mu.Unlock()
		}
	}
}

func offer(ch chan []byte, frame []byte) {
	for {
		select {
		case ch <- frame:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Viewers returns the number of connected viewers.
func (s *Stream) Viewers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers)
}

// ServeHTTP upgrades the request and streams frames until the viewer
// disconnects or the stream closes.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	id := uuid.NewString()
	v := &viewer{conn: conn, frames: make(chan []byte, 1), done: make(chan struct{})}

	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		conn.Close()
		return
	default:
	}
	s.viewers[id] = v
	if s.latest != nil {
		v.frames <- s.latest
	}
	s.mu.Unlock()
	log.Info("viewer connected", "viewer", id, "remote", r.RemoteAddr)

	go s.readPump(id, v)
	s.writePump(id, v)
}

// readPump discards anything the viewer sends and notices disconnects.
func (s *Stream) readPump(id string, v *viewer) {
	defer close(v.done)
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("viewer read failed", "viewer", id, "err", err)
			}
			return
		}
	}
}

func (s *Stream) writePump(id string, v *viewer) {
	defer func() {
		s.mu.Lock()
		delete(s.viewers, id)
		s.mu.Unlock()
		v.conn.Close()
		log.Info("viewer disconnected", "viewer", id)
	}()

	hello, _ := json.Marshal(s.hello)
	v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := v.conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		log.Warn("viewer write failed", "viewer", id, "err", err)
		return
	}
	for {
		select {
		case <-s.closed:
			v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
				time.Now().Add(time.Second))
			return
		case <-v.done:
			return
		case frame := <-v.frames:
			v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := v.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Warn("viewer write failed", "viewer", id, "err", err)
				return
			}
		}
	}
}

// Close disconnects every viewer and stops the encoder.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Server serves a Stream over HTTP.
type Server struct {
	Stream *Stream
	Addr   net.Addr

	http *http.Server
	ln   net.Listener
}

// Listen binds addr and serves the stream at StreamPath.
func Listen(addr string, stream *Stream) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(StreamPath, stream)
	srv := &Server{
		Stream: stream,
		Addr:   ln.Addr(),
		http:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
	}
	go func() {
		if err := srv.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("share server stopped", "err", err)
		}
	}()
	log.Info("share server listening", "addr", ln.Addr().String())
	return srv, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	if a, ok := s.Addr.(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Close stops the stream and the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.Stream.Close()
	return s.http.Shutdown(ctx)
}
