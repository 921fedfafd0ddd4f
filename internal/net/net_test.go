package net

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + StreamPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) image.Image {
	t.Helper()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		return img
	}
}

func waitViewers(t *testing.T, s *Stream, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Viewers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("viewers = %d, want %d", s.Viewers(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStreamSendsHelloAndFrames(t *testing.T) {
	stream := NewStream("b-1", "kitchen")
	defer stream.Close()
	srv := httptest.NewServer(stream)
	defer srv.Close()

	conn := dial(t, srv)
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var h Hello
	if kind != websocket.TextMessage || json.Unmarshal(data, &h) != nil {
		t.Fatalf("first message kind %d: %q", kind, data)
	}
	if h.Board != "b-1" || h.Name != "kitchen" {
		t.Fatalf("hello = %+v", h)
	}

	waitViewers(t, stream, 1)
	stream.Publish(solid(color.RGBA{R: 255, A: 255}))
	img := readFrame(t, conn)
	if r, g, _, _ := img.At(1, 1).RGBA(); r>>8 != 255 || g != 0 {
		t.Fatalf("pixel = %v", img.At(1, 1))
	}
}

func TestLateViewerGetsLatestFrame(t *testing.T) {
	stream := NewStream("b", "")
	defer stream.Close()
	srv := httptest.NewServer(stream)
	defer srv.Close()

	first := dial(t, srv)
	waitViewers(t, stream, 1)
	stream.Publish(solid(color.RGBA{B: 255, A: 255}))
	readFrame(t, first)

	late := dial(t, srv)
	img := readFrame(t, late)
	if _, _, b, _ := img.At(0, 0).RGBA(); b>>8 != 255 {
		t.Fatalf("late viewer pixel = %v", img.At(0, 0))
	}
}

func TestViewerDisconnectIsForgotten(t *testing.T) {
	stream := NewStream("b", "")
	defer stream.Close()
	srv := httptest.NewServer(stream)
	defer srv.Close()

	conn := dial(t, srv)
	waitViewers(t, stream, 1)
	conn.Close()
	waitViewers(t, stream, 0)
}

func TestWatch(t *testing.T) {
	stream := NewStream("b-2", "den")
	defer stream.Close()
	srv := httptest.NewServer(stream)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hellos := make(chan Hello, 1)
	frames := make(chan image.Image, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, srv.URL, func(h Hello) { hellos <- h }, func(img image.Image) { frames <- img })
	}()

	if h := <-hellos; h.Board != "b-2" {
		t.Fatalf("hello = %+v", h)
	}
	waitViewers(t, stream, 1)
	stream.Publish(solid(color.RGBA{G: 200, A: 255}))
	select {
	case img := <-frames:
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
			t.Fatalf("bounds %v", b)
		}
	case <-ctx.Done():
		t.Fatal("no frame")
	}

	stream.Close()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("watch ended with %v", err)
		}
	case <-ctx.Done():
		t.Fatal("watch did not end after stream close")
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"192.168.1.4:7070", "ws://192.168.1.4:7070/stream", true},
		{"http://host:1", "ws://host:1/stream", true},
		{"https://host/custom", "wss://host/custom", true},
		{"ws://host:2/stream", "ws://host:2/stream", true},
		{"ftp://host", "", false},
		{"http://", "", false},
	}
	for _, tt := range tests {
		got, err := StreamURL(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("StreamURL(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestListen(t *testing.T) {
	stream := NewStream("b", "")
	srv, err := Listen("127.0.0.1:0", stream)
	if err != nil {
		t.Fatal(err)
	}
	if srv.Port() == 0 {
		t.Fatal("no port")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Close(ctx); err != nil {
		t.Fatal(err)
	}
}
