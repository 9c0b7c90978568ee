package llm

import (
	"crypto/rand"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"
)

// NewTurnID returns a lexically sortable identifier for one decoded turn.
func NewTurnID() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewToolCallID returns an ID of the form call_<nanoid> for tool calls whose backend
// did not supply one (text-scanned dialects never do).
func NewToolCallID() string {
	id, err := gonanoid.New()
	if err != nil {
		// crypto/rand failure; fall back to a time-derived suffix.
		return "call_" + ulid.Make().String()
	}
	return "call_" + id
}
