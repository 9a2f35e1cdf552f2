package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/wulang/internal/bot"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.onEvent == nil || m.Author == nil {
		return
	}
	self := s.State.User.ID
	ev := toEvent(m.Message, self, b.keyword)
	if ev.Body == "" {
		return
	}
	if !ev.FromMe {
		s.ChannelTyping(m.ChannelID)
	}
	b.onEvent(ev)
}

// toEvent maps a Discord message. The channel is the conversation and the
// author's snowflake id stands in for a phone number on the allowlist.
func toEvent(m *discordgo.Message, selfID, keyword string) bot.Event {
	return bot.Event{
		ID:       m.ID,
		FromMe:   m.Author.ID == selfID || m.Author.Bot,
		Body:     strings.TrimSpace(mentionToKeyword(m.Content, selfID, keyword)),
		From:     m.ChannelID,
		Author:   m.Author.ID,
		PushName: m.Author.Username,
	}
}

// mentionToKeyword treats an @mention of the bot like the trigger keyword.
func mentionToKeyword(s, userID, keyword string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", keyword)
	s = strings.ReplaceAll(s, "<@!"+userID+">", keyword)
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := min(maxLen, len(s))
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
