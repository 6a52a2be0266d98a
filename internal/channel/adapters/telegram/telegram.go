// Package telegram bridges Telegram long-polling updates into the channel
// contract.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/runbridge/runbridge/internal/admin"
	"github.com/runbridge/runbridge/internal/channel"
)

// Type is the channel type for Telegram.
const Type = channel.ChannelType("telegram")

const (
	commandListFiles  = "files"
	commandDeleteFile = "deletefile"
)

// Adapter connects one Telegram bot to the inbound handler and serves the
// file-admin commands.
type Adapter struct {
	logger *slog.Logger
	token  string
	files  *admin.Service
}

// NewAdapter creates a Telegram adapter for the given bot token.
func NewAdapter(log *slog.Logger, token string, files *admin.Service) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "telegram")),
		token:  token,
		files:  files,
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return Type
}

// Connect logs the bot in and starts the long-polling update loop.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (func(context.Context) error, error) {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return nil, fmt.Errorf("telegram create bot: %w", err)
	}
	a.logger.Info("logged in", slog.String("user", bot.Self.UserName))

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := bot.GetUpdatesChan(updateCfg)

	go func() {
		for update := range updates {
			if ctx.Err() != nil {
				return
			}
			a.handleUpdate(ctx, bot, update, handler)
		}
	}()

	stop := func(stopCtx context.Context) error {
		a.logger.Info("stop")
		bot.StopReceivingUpdates()
		return nil
	}
	return stop, nil
}

func (a *Adapter) handleUpdate(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update, handler channel.InboundHandler) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	if msg.IsCommand() {
		a.handleCommand(ctx, bot, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	attachments := a.collectAttachments(bot, msg)
	if text == "" && len(attachments) == 0 {
		return
	}

	chatType := "direct"
	if msg.Chat != nil && !msg.Chat.IsPrivate() {
		chatType = "group"
	}
	inbound := channel.InboundMessage{
		Channel: Type,
		Message: channel.Message{
			ID:          strconv.Itoa(msg.MessageID),
			Text:        text,
			Attachments: attachments,
		},
		Sender: channel.Identity{
			SubjectID:   strconv.FormatInt(msg.From.ID, 10),
			DisplayName: msg.From.UserName,
			Bot:         msg.From.IsBot,
		},
		Conversation: channel.Conversation{
			ID:   strconv.FormatInt(msg.Chat.ID, 10),
			Type: chatType,
			// Bots cannot read chat history over the Bot API, so no
			// conversation is a seedable container here.
			ThreadContainer: false,
		},
		ReceivedAt: time.Now().UTC(),
	}

	a.logger.Info("inbound received",
		slog.String("conversation_id", inbound.Conversation.ID),
		slog.String("user_id", inbound.Sender.SubjectID),
		slog.Int("attachments", len(attachments)),
	)

	responder := &responder{bot: bot, chatID: msg.Chat.ID, messageID: msg.MessageID}
	go func() {
		if err := handler(ctx, inbound, responder); err != nil {
			a.logger.Error("handle inbound failed",
				slog.String("conversation_id", inbound.Conversation.ID),
				slog.Any("error", err),
			)
		}
	}()
}

func (a *Adapter) handleCommand(ctx context.Context, bot *tgbotapi.BotAPI, msg *tgbotapi.Message) {
	reply := a.commandReply(ctx, msg.Command(), msg.CommandArguments())
	if reply == "" {
		return
	}
	response := tgbotapi.NewMessage(msg.Chat.ID, reply)
	response.ReplyToMessageID = msg.MessageID
	if _, err := bot.Send(response); err != nil {
		a.logger.Error("command reply failed",
			slog.String("command", msg.Command()),
			slog.Any("error", err),
		)
	}
}

func (a *Adapter) commandReply(ctx context.Context, command, args string) string {
	switch command {
	case commandListFiles:
		entries, err := a.files.ListFiles(ctx)
		if err != nil {
			a.logger.Error("list files failed", slog.Any("error", err))
			return "Could not list the assistant's files."
		}
		return admin.FormatListing(entries)
	case commandDeleteFile:
		if err := a.files.DeleteFile(ctx, args); err != nil {
			if !errors.Is(err, admin.ErrFileNotFound) {
				a.logger.Error("delete file failed", slog.Any("error", err))
			}
			return "File not found."
		}
		return "File deleted."
	}
	return ""
}

func (a *Adapter) collectAttachments(bot *tgbotapi.BotAPI, msg *tgbotapi.Message) []channel.Attachment {
	var attachments []channel.Attachment
	if msg.Document != nil {
		attachments = append(attachments, a.buildAttachment(bot,
			msg.Document.FileID, msg.Document.FileName, msg.Document.MimeType, int64(msg.Document.FileSize)))
	}
	if len(msg.Photo) > 0 {
		// Sizes are ordered smallest first; take the largest rendition.
		photo := msg.Photo[len(msg.Photo)-1]
		attachments = append(attachments, a.buildAttachment(bot,
			photo.FileID, "photo_"+photo.FileUniqueID+".jpg", "image/jpeg", int64(photo.FileSize)))
	}
	return attachments
}

func (a *Adapter) buildAttachment(bot *tgbotapi.BotAPI, fileID, name, mime string, size int64) channel.Attachment {
	url := ""
	if strings.TrimSpace(fileID) != "" {
		value, err := bot.GetFileDirectURL(fileID)
		if err != nil {
			a.logger.Warn("resolve file url failed",
				slog.String("file_id", fileID),
				slog.Any("error", err),
			)
		} else {
			url = value
		}
	}
	return channel.Attachment{
		URL:         url,
		PlatformKey: fileID,
		Name:        name,
		Mime:        mime,
		Size:        size,
	}
}

// responder delivers replies into the originating chat.
type responder struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	messageID int
}

func (r *responder) Reply(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyToMessageID = r.messageID
	_, err := r.bot.Send(msg)
	return err
}

func (r *responder) ReplyFile(ctx context.Context, filename string, content io.Reader, caption string) error {
	document := tgbotapi.NewDocument(r.chatID, tgbotapi.FileReader{Name: filename, Reader: content})
	document.Caption = caption
	document.ReplyToMessageID = r.messageID
	_, err := r.bot.Send(document)
	return err
}

func (r *responder) SendTyping(ctx context.Context) {
	action := tgbotapi.NewChatAction(r.chatID, tgbotapi.ChatTyping)
	if _, err := r.bot.Request(action); err != nil {
		// Best effort; typing indicators are cosmetic.
		return
	}
}

func (r *responder) History(ctx context.Context) ([]channel.Message, bool, error) {
	return nil, false, nil
}
