package core

import (
	"time"

	"github.com/google/uuid"
)

// Message is the unit of the exchange transcript. After emission it should
// be treated as immutable. It captures correlation (ID, RunID, Author),
// the conversational content and a high precision UTC timestamp.
type Message struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Content   Content   `json:"content"`
}

// NewMessage creates a bare message authored by 'author' bound to a run.
func NewMessage(runID, author string, content Content) Message {
	return Message{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Timestamp: time.Now().UTC(),
		Content:   content,
	}
}

// NewUserMessage is a convenience wrapper for a user-authored text message.
func NewUserMessage(runID, text string) Message {
	return NewMessage(runID, "user", NewTextContent("user", text))
}

// Text returns the concatenated text of the message content.
func (m Message) Text() string { return m.Content.Text() }

// NewID generates a new unique identifier for messages and runs.
func NewID() string { return uuid.NewString() }
