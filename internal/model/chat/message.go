package chat

// Message is a single transcript entry. Values are never mutated after they
// are appended; insertion order is the only ordering.
type Message struct {
	Text  string `json:"text"`
	IsBot bool   `json:"isBot"`
}

// BotMessage builds a bot-authored message.
func BotMessage(text string) Message {
	return Message{Text: text, IsBot: true}
}

// UserMessage builds a user-authored message.
func UserMessage(text string) Message {
	return Message{Text: text}
}
