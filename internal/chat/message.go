// ABOUTME: Committed conversation message types
// ABOUTME: Messages are immutable once appended; ordering is append order

package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one committed entry in the conversation history. Messages are
// never mutated after being appended; the in-progress assistant reply lives
// in the controller's accumulator until it is complete, then is committed
// atomically as a new Message.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// newMessage builds a committed message stamped with the current time.
func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
