// Package conversation provides the ordered, append-only dialogue log of an interview session.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/types"
)

// DefaultWindowSize is the number of recent turns used to build follow-up prompts.
const DefaultWindowSize = 6

// OrderingViolationError is returned when a turn does not extend the log by exactly one sequence number.
type OrderingViolationError struct {
	SessionID uuid.UUID
	Expected  int
	Got       int
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("ordering violation in session %s: expected sequence %d, got %d", e.SessionID, e.Expected, e.Got)
}

// Log is the turn sequence of one session. Sequence numbers start at 1 and are gapless.
type Log struct {
	sessionID uuid.UUID
	turns     []types.ConversationTurn
}

// New creates an empty log for the session.
func New(sessionID uuid.UUID) *Log {
	return &Log{sessionID: sessionID}
}

// Restore rebuilds a log from persisted turns, checking that they are ordered and gapless.
func Restore(sessionID uuid.UUID, turns []types.ConversationTurn) (*Log, error) {
	l := New(sessionID)
	for _, turn := range turns {
		if err := l.Append(turn); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// SessionID returns the owning session.
func (l *Log) SessionID() uuid.UUID {
	return l.sessionID
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// LastSequence returns the sequence number of the newest turn, or 0 when empty.
func (l *Log) LastSequence() int {
	if len(l.turns) == 0 {
		return 0
	}
	return l.turns[len(l.turns)-1].SequenceNumber
}

// Append adds a turn. The turn must belong to this session and carry sequence LastSequence()+1.
func (l *Log) Append(turn types.ConversationTurn) error {
	if turn.SessionID != l.sessionID {
		return fmt.Errorf("turn belongs to session %s, not %s", turn.SessionID, l.sessionID)
	}
	if want := l.LastSequence() + 1; turn.SequenceNumber != want {
		return &OrderingViolationError{SessionID: l.sessionID, Expected: want, Got: turn.SequenceNumber}
	}
	turn.Metadata = turn.Metadata.Clone()
	l.turns = append(l.turns, turn)
	return nil
}

// NextTurn builds the turn that would extend the log, without appending it.
func (l *Log) NextTurn(speaker types.Speaker, text string, at time.Time) types.ConversationTurn {
	return types.ConversationTurn{
		SessionID:      l.sessionID,
		Speaker:        speaker,
		Text:           text,
		SequenceNumber: l.LastSequence() + 1,
		Timestamp:      at,
	}
}

// Window returns the most recent n turns in insertion order.
func (l *Log) Window(n int) []types.ConversationTurn {
	if n <= 0 {
		return nil
	}
	start := max(len(l.turns)-n, 0)
	return copyTurns(l.turns[start:])
}

// Turns returns every turn in insertion order.
func (l *Log) Turns() []types.ConversationTurn {
	return copyTurns(l.turns)
}

// Since returns the turns with a sequence number greater than seq.
func (l *Log) Since(seq int) []types.ConversationTurn {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.turns) {
		return nil
	}
	return copyTurns(l.turns[seq:])
}

// Clone returns an independent copy of the log.
func (l *Log) Clone() *Log {
	return &Log{sessionID: l.sessionID, turns: copyTurns(l.turns)}
}

// copyTurns deep-copies turns, metadata included.
func copyTurns(turns []types.ConversationTurn) []types.ConversationTurn {
	if len(turns) == 0 {
		return nil
	}
	out := make([]types.ConversationTurn, len(turns))
	for i, turn := range turns {
		turn.Metadata = turn.Metadata.Clone()
		out[i] = turn
	}
	return out
}

// Format renders turns as "SPEAKER: text" lines for prompt context.
func Format(turns []types.ConversationTurn) string {
	var sb strings.Builder
	for i, turn := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.ToUpper(string(turn.Speaker)))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
	}
	return sb.String()
}
