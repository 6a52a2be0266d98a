package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/runbridge/runbridge/internal/admin"
)

const (
	commandListFiles  = "listfiles"
	commandDeleteFile = "deletefile"
)

func (a *Adapter) registerCommands(s *discordgo.Session) {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        commandListFiles,
			Description: "List files linked to the assistant",
		},
		{
			Name:        commandDeleteFile,
			Description: "Delete a file from the assistant",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "File id (file-...)",
					Required:    true,
				},
			},
		},
	}
	for _, cmd := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			a.logger.Error("register command failed",
				slog.String("command", cmd.Name),
				slog.Any("error", err),
			)
		}
	}
	a.logger.Info("slash commands registered")
}

// interactionSession is the slice of discordgo.Session the command handlers
// need; narrowed for testing.
type interactionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

func (a *Adapter) handleInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	a.respondToCommand(ctx, s, i.Interaction, i.ApplicationCommandData())
}

func (a *Adapter) respondToCommand(ctx context.Context, s interactionSession, interaction *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) {
	var content string
	switch data.Name {
	case commandListFiles:
		content = a.listFilesReply(ctx)
	case commandDeleteFile:
		content = a.deleteFileReply(ctx, commandStringOption(data, "id"))
	default:
		return
	}

	err := s.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		a.logger.Error("interaction respond failed",
			slog.String("command", data.Name),
			slog.Any("error", err),
		)
	}
}

func (a *Adapter) listFilesReply(ctx context.Context) string {
	entries, err := a.files.ListFiles(ctx)
	if err != nil {
		a.logger.Error("list files failed", slog.Any("error", err))
		return "Could not list the assistant's files."
	}
	return admin.FormatListing(entries)
}

func (a *Adapter) deleteFileReply(ctx context.Context, fileID string) string {
	if err := a.files.DeleteFile(ctx, fileID); err != nil {
		if !errors.Is(err, admin.ErrFileNotFound) {
			a.logger.Error("delete file failed", slog.Any("error", err))
		}
		return "File not found."
	}
	return "File deleted."
}

func commandStringOption(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt != nil && opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
