package chat

// Request is the body posted to the chat backend for every user turn.
type Request struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Reply is the backend answer. Message is a pointer so that a payload
// without the field can be told apart from an empty reply.
type Reply struct {
	Message *string `json:"message"`
}
