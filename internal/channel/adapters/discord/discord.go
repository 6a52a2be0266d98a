// Package discord bridges Discord gateway events into the channel contract.
package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/runbridge/runbridge/internal/admin"
	"github.com/runbridge/runbridge/internal/channel"
)

// Type is the channel type for Discord.
const Type = channel.ChannelType("discord")

const inboundDedupTTL = time.Minute

// historyFetchLimit caps how many prior messages are replayed when a thread
// is seen for the first time.
const historyFetchLimit = 100

// Adapter connects one Discord bot to the inbound handler and serves the
// file-admin slash commands.
type Adapter struct {
	logger *slog.Logger
	token  string
	files  *admin.Service

	mu           sync.Mutex
	session      *discordgo.Session
	seenMessages map[string]time.Time
}

// NewAdapter creates a Discord adapter for the given bot token.
func NewAdapter(log *slog.Logger, token string, files *admin.Service) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:       log.With(slog.String("adapter", "discord")),
		token:        token,
		files:        files,
		seenMessages: make(map[string]time.Time),
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return Type
}

// Connect logs in, registers the gateway handlers and slash commands, and
// starts delivering inbound messages to handler.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (func(context.Context) error, error) {
	session, err := discordgo.New("Bot " + a.token)
	if err != nil {
		return nil, fmt.Errorf("discord create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	removeMessage := session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(ctx, s, m, handler)
	})
	removeInteraction := session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		a.handleInteraction(ctx, s, i)
	})
	session.AddHandlerOnce(func(s *discordgo.Session, r *discordgo.Ready) {
		a.logger.Info("logged in", slog.String("user", r.User.Username))
		a.registerCommands(s)
	})

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord open connection: %w", err)
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	stop := func(stopCtx context.Context) error {
		a.logger.Info("stop")
		removeMessage()
		removeInteraction()
		return session.Close()
	}
	return stop, nil
}

func (a *Adapter) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, handler channel.InboundHandler) {
	if ctx.Err() != nil {
		return
	}
	if m.Author == nil || m.Author.Bot {
		return
	}
	if a.isDuplicateInbound(m.ID) {
		return
	}

	text := strings.TrimSpace(m.Content)
	attachments := collectAttachments(m.Message)
	if text == "" && len(attachments) == 0 {
		return
	}

	chatType := "direct"
	if m.GuildID != "" {
		chatType = "guild"
	}
	msg := channel.InboundMessage{
		Channel: Type,
		Message: channel.Message{
			ID:          m.ID,
			Text:        text,
			Attachments: attachments,
		},
		Sender: channel.Identity{
			SubjectID:   m.Author.ID,
			DisplayName: m.Author.Username,
			Bot:         m.Author.Bot,
		},
		Conversation: channel.Conversation{
			ID:              m.ChannelID,
			Type:            chatType,
			ThreadContainer: a.isThreadChannel(s, m.ChannelID),
		},
		ReceivedAt: time.Now().UTC(),
	}

	a.logger.Info("inbound received",
		slog.String("conversation_id", m.ChannelID),
		slog.String("user_id", m.Author.ID),
		slog.Int("attachments", len(attachments)),
	)

	responder := &responder{session: s, channelID: m.ChannelID, messageID: m.ID}
	go func() {
		if err := handler(ctx, msg, responder); err != nil {
			a.logger.Error("handle inbound failed",
				slog.String("conversation_id", m.ChannelID),
				slog.Any("error", err),
			)
		}
	}()
}

func (a *Adapter) isThreadChannel(s *discordgo.Session, channelID string) bool {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
	}
	if err != nil || ch == nil {
		return false
	}
	return ch.IsThread()
}

func (a *Adapter) isDuplicateInbound(messageID string) bool {
	if strings.TrimSpace(messageID) == "" {
		return false
	}

	now := time.Now().UTC()
	expireBefore := now.Add(-inboundDedupTTL)

	a.mu.Lock()
	defer a.mu.Unlock()

	for key, seenAt := range a.seenMessages {
		if seenAt.Before(expireBefore) {
			delete(a.seenMessages, key)
		}
	}

	if _, ok := a.seenMessages[messageID]; ok {
		return true
	}
	a.seenMessages[messageID] = now
	return false
}

func collectAttachments(msg *discordgo.Message) []channel.Attachment {
	if msg == nil || len(msg.Attachments) == 0 {
		return nil
	}
	attachments := make([]channel.Attachment, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, channel.Attachment{
			URL:         att.URL,
			PlatformKey: att.ID,
			Name:        att.Filename,
			Mime:        att.ContentType,
			Size:        int64(att.Size),
		})
	}
	return attachments
}

// responder delivers replies into the channel the triggering message came
// from, referencing that message so multi-segment replies stay attached to
// their question.
type responder struct {
	session   *discordgo.Session
	channelID string
	messageID string
}

func (r *responder) reference() *discordgo.MessageReference {
	return &discordgo.MessageReference{
		ChannelID: r.channelID,
		MessageID: r.messageID,
	}
}

func (r *responder) Reply(ctx context.Context, text string) error {
	_, err := r.session.ChannelMessageSendReply(r.channelID, text, r.reference())
	return err
}

func (r *responder) ReplyFile(ctx context.Context, filename string, content io.Reader, caption string) error {
	_, err := r.session.ChannelMessageSendComplex(r.channelID, &discordgo.MessageSend{
		Content:   caption,
		Files:     []*discordgo.File{{Name: filename, Reader: content}},
		Reference: r.reference(),
	})
	return err
}

func (r *responder) SendTyping(ctx context.Context) {
	_ = r.session.ChannelTyping(r.channelID)
}

// History returns the thread's messages oldest first, starter message
// included, so a fresh remote thread can be seeded with the whole
// conversation. Non-thread channels report no history.
func (r *responder) History(ctx context.Context) ([]channel.Message, bool, error) {
	ch, err := r.session.State.Channel(r.channelID)
	if err != nil {
		ch, err = r.session.Channel(r.channelID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("resolve channel: %w", err)
	}
	if !ch.IsThread() {
		return nil, false, nil
	}

	raw, err := r.session.ChannelMessages(r.channelID, historyFetchLimit, "", "", "")
	if err != nil {
		return nil, false, fmt.Errorf("fetch thread messages: %w", err)
	}

	history := make([]channel.Message, 0, len(raw)+1)
	// The starter message lives in the parent channel under the thread's id.
	if starter, err := r.session.ChannelMessage(ch.ParentID, r.channelID); err == nil && starter != nil {
		history = append(history, channel.Message{ID: starter.ID, Text: starter.Content})
	}
	// ChannelMessages returns newest first.
	for i := len(raw) - 1; i >= 0; i-- {
		history = append(history, channel.Message{ID: raw[i].ID, Text: raw[i].Content})
	}
	return history, true, nil
}
