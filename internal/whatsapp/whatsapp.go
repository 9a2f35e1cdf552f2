// Package whatsapp connects the bot to WhatsApp Web through whatsmeow.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/chris/wulang/internal/bot"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/mattn/go-sqlite3" // session store
)

var ErrNotConnected = errors.New("whatsapp: not connected")

type Client struct {
	ctx       context.Context
	wa        *whatsmeow.Client
	container *sqlstore.Container
	onEvent   func(bot.Event)
	connected atomic.Bool
	ready     chan struct{} // closed on the first successful connection
	readyOnce sync.Once
}

// New opens the session store at sessionPath and prepares a client for the
// first stored device, or a fresh one that still needs pairing. logLevel
// (DEBUG, INFO, WARN, ERROR) turns on whatsmeow's own logging.
func New(ctx context.Context, sessionPath, logLevel string) (*Client, error) {
	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL", sessionPath),
		waLogger("store", logLevel))
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}
	store.SetOSInfo("wulang", [3]uint32{1, 0, 0})

	c := &Client{ctx: ctx, container: container, ready: make(chan struct{})}
	c.wa = whatsmeow.NewClient(device, waLogger("client", logLevel))
	c.wa.EnableAutoReconnect = true
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

func waLogger(module, level string) waLog.Logger {
	if level == "" {
		return waLog.Noop
	}
	return waLog.Stdout("whatsapp/"+module, level, true)
}

// OnEvent sets the handler for inbound messages. Set it before Connect.
func (c *Client) OnEvent(fn func(bot.Event)) {
	c.onEvent = fn
}

// Connect logs in. Without a stored session it prints a pairing QR code to
// the terminal and blocks until it is scanned.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID != nil {
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		return nil
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("getting QR channel: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connecting for QR: %w", err)
	}
	log.Println("whatsapp: no session, scan the QR code with WhatsApp > Linked devices")

	for {
		select {
		case <-ctx.Done():
			c.wa.Disconnect()
			return ctx.Err()
		case evt, ok := <-qrChan:
			if !ok {
				return fmt.Errorf("QR channel closed unexpectedly")
			}
			switch evt.Event {
			case whatsmeow.QRChannelEventCode:
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			case whatsmeow.QRChannelSuccess.Event:
				log.Println("whatsapp: paired")
				return nil
			case whatsmeow.QRChannelTimeout.Event:
				c.wa.Disconnect()
				return fmt.Errorf("QR code timeout")
			case whatsmeow.QRChannelEventError:
				c.wa.Disconnect()
				return fmt.Errorf("pairing: %w", evt.Error)
			default:
				log.Printf("whatsapp: pairing event %s", evt.Event)
			}
		}
	}
}

// WaitConnected blocks until the client is online.
func (c *Client) WaitConnected(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for WhatsApp connection: %w", ctx.Err())
	}
}

func (c *Client) Disconnect() {
	c.wa.Disconnect()
	c.connected.Store(false)
	if err := c.container.Close(); err != nil {
		log.Printf("whatsapp: closing session store: %v", err)
	}
}

// Send posts text to a chat or bare phone number.
func (c *Client) Send(ctx context.Context, to, text string) error {
	jid, err := parseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", to, err)
	}
	return c.send(ctx, jid.String(), textMessage(text))
}

// Reply answers ev in its chat, quoting it.
func (c *Client) Reply(ctx context.Context, ev bot.Event, text string) error {
	return c.send(ctx, ev.From, replyMessage(ev, text))
}

func (c *Client) send(ctx context.Context, to string, msg *waMessage) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	jid, err := parseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", to, err)
	}
	if _, err := c.wa.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (c *Client) handleEvent(raw any) {
	switch evt := raw.(type) {
	case *events.Message:
		ev, ok := toEvent(c.ctx, evt, c.wa.Store.GetAltJID)
		if !ok || c.onEvent == nil {
			return
		}
		c.onEvent(ev)
	case *events.Connected:
		c.connected.Store(true)
		c.readyOnce.Do(func() { close(c.ready) })
		log.Printf("whatsapp: connected as %s", c.wa.Store.ID)
	case *events.Disconnected:
		c.connected.Store(false)
		log.Println("whatsapp: disconnected, reconnecting")
	case *events.LoggedOut:
		c.connected.Store(false)
		log.Printf("whatsapp: logged out (%s), delete the session file and pair again", evt.Reason)
	case *events.StreamReplaced:
		c.connected.Store(false)
		log.Println("whatsapp: session opened elsewhere")
	case *events.TemporaryBan:
		log.Printf("whatsapp: temporary ban: %s", evt)
	}
}
