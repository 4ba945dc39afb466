// Package transcribe consumes streaming speech-to-text output.
// A Stream yields partial and final text segments until io.EOF. Streams cannot be restarted.
package transcribe

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("transcription stream closed")

// Delta is one transcription segment. Partial segments may be revised; final ones are settled.
type Delta struct {
	Text  string `json:"text"`
	Final bool   `json:"is_final"`
}

// Stream is a finite sequence of transcription segments.
type Stream interface {
	// Next blocks for the next segment. It returns io.EOF once the stream is exhausted.
	Next(ctx context.Context) (Delta, error)
	Close() error
}

// SliceStream replays a fixed list of segments.
type SliceStream struct {
	deltas []Delta
	pos    int
	closed bool
}

// NewSliceStream creates a stream over deltas.
func NewSliceStream(deltas ...Delta) *SliceStream {
	return &SliceStream{deltas: deltas}
}

// Next returns the next segment.
func (s *SliceStream) Next(ctx context.Context) (Delta, error) {
	if err := ctx.Err(); err != nil {
		return Delta{}, err
	}
	if s.closed {
		return Delta{}, ErrClosed
	}
	if s.pos >= len(s.deltas) {
		return Delta{}, io.EOF
	}
	d := s.deltas[s.pos]
	s.pos++
	return d, nil
}

// Close ends the stream.
func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// FinalText drains the stream and joins its final segments. Partial segments are dropped.
func FinalText(ctx context.Context, s Stream) (string, error) {
	var parts []string
	for {
		d, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if !d.Final {
			continue
		}
		if text := strings.TrimSpace(d.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
