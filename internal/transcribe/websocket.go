package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultConnectTimeout = 10 * time.Second

// message is the wire form sent by the transcription endpoint.
type message struct {
	Text  string `json:"text"`
	Final bool   `json:"is_final"`
	Error string `json:"error,omitempty"`
}

// WebsocketStream reads transcription segments from a websocket endpoint.
type WebsocketStream struct {
	conn   *websocket.Conn
	deltas chan Delta
	done   chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// Dial connects to a transcription endpoint and starts reading.
func Dial(ctx context.Context, url string, header http.Header) (*WebsocketStream, error) {
	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transcription dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("transcription dial failed: %w", err)
	}

	s := &WebsocketStream{
		conn:   conn,
		deltas: make(chan Delta, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *WebsocketStream) readLoop() {
	defer close(s.deltas)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setErr(err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.setErr(fmt.Errorf("invalid transcription frame: %w", err))
			return
		}
		if msg.Error != "" {
			s.setErr(fmt.Errorf("transcription endpoint error: %s", msg.Error))
			return
		}

		select {
		case s.deltas <- Delta{Text: msg.Text, Final: msg.Final}:
		case <-s.done:
			return
		}
	}
}

func (s *WebsocketStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Next returns the next segment, io.EOF when the endpoint closes normally, or the read error.
func (s *WebsocketStream) Next(ctx context.Context) (Delta, error) {
	select {
	case <-s.done:
		return Delta{}, ErrClosed
	default:
	}

	select {
	case d, ok := <-s.deltas:
		if ok {
			return d, nil
		}
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		if err != nil {
			return Delta{}, err
		}
		return Delta{}, io.EOF
	case <-ctx.Done():
		return Delta{}, ctx.Err()
	case <-s.done:
		return Delta{}, ErrClosed
	}
}

// Close sends a close frame and releases the connection.
func (s *WebsocketStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		err = s.conn.Close()
	})
	return err
}
