package chat

import "github.com/zhouzirui/supreme-chatbot/internal/model/chat"

// Transcript is the ordered, append-only list of messages of one conversation.
// It has no capacity bound; a session keeps every message until it is dropped.
// Transcript is not safe for concurrent use; Conversation guards it.
type Transcript struct {
	messages []chat.Message
}

// NewTranscript returns a transcript seeded with the given messages.
func NewTranscript(seed ...chat.Message) *Transcript {
	t := &Transcript{messages: make([]chat.Message, 0, 16)}
	t.messages = append(t.messages, seed...)
	return t
}

// Append adds a message to the end. It is the only mutator.
func (t *Transcript) Append(msg chat.Message) {
	t.messages = append(t.messages, msg)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// At returns the i-th message.
func (t *Transcript) At(i int) (chat.Message, bool) {
	if i < 0 || i >= len(t.messages) {
		return chat.Message{}, false
	}
	return t.messages[i], true
}

// Messages returns a copy of the messages in insertion order.
func (t *Transcript) Messages() []chat.Message {
	copied := make([]chat.Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}
