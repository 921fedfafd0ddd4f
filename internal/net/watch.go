package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// StreamURL turns a host:port, or an http(s)/ws(s) URL, into the websocket
// URL of a share server.
func StreamURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("bad share address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("bad share address %q: unsupported scheme", addr)
	}
	if u.Host == "" {
		return "", fmt.Errorf("bad share address %q: missing host", addr)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = StreamPath
	}
	return u.String(), nil
}

// Watch connects to a share server and calls onFrame with every decoded
// frame until ctx is cancelled or the server goes away. onHello, when not
// nil, receives the announcement sent before the first frame.
func Watch(ctx context.Context, addr string, onHello func(Hello), onFrame func(image.Image)) error {
	target, err := StreamURL(addr)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Info("watching", "url", target)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		switch kind {
		case websocket.TextMessage:
			var h Hello
			if err := json.Unmarshal(data, &h); err != nil {
				log.Warn("bad hello", "err", err)
				continue
			}
			if onHello != nil {
				onHello(h)
			}
		case websocket.BinaryMessage:
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				log.Warn("bad frame", "bytes", len(data), "err", err)
				continue
			}
			onFrame(img)
		}
	}
}
