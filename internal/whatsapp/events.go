package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris/wulang/internal/bot"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

type waMessage = waE2E.Message

// altResolver looks up the phone-number JID whatsmeow has stored for a LID.
type altResolver func(ctx context.Context, jid types.JID) (types.JID, error)

// toEvent converts a whatsmeow message. Messages without text are dropped;
// self-authored and broadcast messages are kept with FromMe set. Sender and
// chat LIDs are turned back into phone numbers so the allowlist can match.
func toEvent(ctx context.Context, evt *events.Message, resolve altResolver) (bot.Event, bool) {
	body := messageText(evt.Message)
	if body == "" {
		return bot.Event{}, false
	}
	info := evt.Info
	sender := phoneJID(ctx, info.Sender, info.SenderAlt, resolve)

	ev := bot.Event{
		ID:       string(info.ID),
		FromMe:   info.IsFromMe || info.Chat.Server == types.BroadcastServer,
		Body:     body,
		From:     info.Chat.ToNonAD().String(),
		PushName: info.PushName,
	}
	if info.IsGroup {
		ev.Author = sender.String()
	} else if info.Chat.Server == types.HiddenUserServer {
		var chatAlt types.JID
		if !info.IsFromMe {
			chatAlt = info.SenderAlt
		}
		ev.From = phoneJID(ctx, info.Chat, chatAlt, resolve).String()
	}
	return ev, true
}

// phoneJID prefers the phone-number form of a JID that arrived as a LID:
// the alt JID carried by the message, else the one in the store.
func phoneJID(ctx context.Context, jid, alt types.JID, resolve altResolver) types.JID {
	if jid.Server != types.HiddenUserServer {
		return jid.ToNonAD()
	}
	if !alt.IsEmpty() {
		return alt.ToNonAD()
	}
	if resolve != nil {
		if pn, err := resolve(ctx, jid); err == nil && !pn.IsEmpty() {
			return pn.ToNonAD()
		}
	}
	return jid.ToNonAD()
}

func messageText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	switch {
	case m.Conversation != nil:
		return m.GetConversation()
	case m.ExtendedTextMessage != nil:
		return m.GetExtendedTextMessage().GetText()
	case m.ImageMessage != nil:
		return m.GetImageMessage().GetCaption()
	case m.VideoMessage != nil:
		return m.GetVideoMessage().GetCaption()
	case m.EphemeralMessage != nil:
		return messageText(m.GetEphemeralMessage().GetMessage())
	}
	return ""
}

func textMessage(text string) *waE2E.Message {
	return &waE2E.Message{Conversation: proto.String(text)}
}

// replyMessage quotes ev so the reply threads under it in the chat.
func replyMessage(ev bot.Event, text string) *waE2E.Message {
	if ev.ID == "" {
		return textMessage(text)
	}
	participant := ev.Author
	if participant == "" {
		participant = ev.From
	}
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(ev.ID),
				Participant:   proto.String(participant),
				QuotedMessage: textMessage(ev.Body),
			},
		},
	}
}

// parseJID accepts a full JID, a legacy c.us id or a bare phone number.
func parseJID(s string) (types.JID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.JID{}, fmt.Errorf("empty JID")
	}
	if user, ok := strings.CutSuffix(s, "@"+types.LegacyUserServer); ok {
		return types.NewJID(user, types.DefaultUserServer), nil
	}
	if strings.Contains(s, "@") {
		return types.ParseJID(s)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) < 10 {
		return types.JID{}, fmt.Errorf("phone number too short: %s", s)
	}
	return types.NewJID(digits, types.DefaultUserServer), nil
}
