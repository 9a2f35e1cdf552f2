package bot

import "strings"

// Event is an inbound chat message as delivered by a transport.
type Event struct {
	ID       string // transport message id, used to quote the reply
	FromMe   bool
	Body     string
	From     string // conversation: chat JID, or the sender's own JID in a direct chat
	Author   string // group participant; empty in direct chats
	PushName string
}

// SenderNumber is the bare number of whoever wrote the message: the part of
// (Author, else From) before '@', cut again at '-' for legacy group ids.
func (e Event) SenderNumber() string {
	id := e.Author
	if id == "" {
		id = e.From
	}
	id, _, _ = strings.Cut(id, "@")
	id, _, _ = strings.Cut(id, "-")
	id, _, _ = strings.Cut(id, ":") // device suffix
	return id
}

// ConversationKey groups turns for history and ordering.
func (e Event) ConversationKey() string {
	return e.From
}
