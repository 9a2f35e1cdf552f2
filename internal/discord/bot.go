package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/wulang/internal/bot"
)

// Bot is a second inbound transport: Discord DMs and channel messages become
// bot events, answered in the same channel.
type Bot struct {
	session *discordgo.Session
	keyword string
	onEvent func(bot.Event)
}

func NewBot(token, keyword string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	b := &Bot{session: s, keyword: keyword}
	s.AddHandler(b.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return b, nil
}

// OnEvent sets the handler for inbound messages. Set it before Open.
func (b *Bot) OnEvent(fn func(bot.Event)) {
	b.onEvent = fn
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	log.Printf("Discord bot connected as %s", b.session.State.User.Username)
	return nil
}

func (b *Bot) Close() {
	b.session.Close()
}

// Reply answers ev in its channel, referencing the original message.
// Discord has a 2000 char limit; longer replies go out in chunks.
func (b *Bot) Reply(_ context.Context, ev bot.Event, text string) error {
	for i, chunk := range splitMessage(text, 2000) {
		var err error
		if i == 0 && ev.ID != "" {
			_, err = b.session.ChannelMessageSendReply(ev.From, chunk, &discordgo.MessageReference{
				MessageID: ev.ID,
				ChannelID: ev.From,
			})
		} else {
			_, err = b.session.ChannelMessageSend(ev.From, chunk)
		}
		if err != nil {
			return fmt.Errorf("sending Discord message: %w", err)
		}
	}
	return nil
}
