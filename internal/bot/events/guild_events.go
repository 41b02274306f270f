package events

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/raidbot/internal/bot/constants"
	"github.com/robalyx/raidbot/pkg/utils"
	"go.uber.org/zap"
)

// CommandClient is the part of rest.Rest used to register slash commands.
type CommandClient interface {
	SetGuildCommands(
		applicationID snowflake.ID, guildID snowflake.ID,
		commandCreates []discord.ApplicationCommandCreate, opts ...rest.RequestOpt,
	) ([]discord.ApplicationCommand, error)
}

// GuildEventHandler registers the bot's slash commands in its guild.
type GuildEventHandler struct {
	guildID      snowflake.ID
	retryOptions utils.RetryOptions
	logger       *zap.Logger
}

// NewGuildEventHandler creates a new instance of the guild event handler.
func NewGuildEventHandler(guildID snowflake.ID, logger *zap.Logger) *GuildEventHandler {
	return &GuildEventHandler{
		guildID:      guildID,
		retryOptions: utils.GetCommandRetryOptions(),
		logger:       logger.Named("guild_events"),
	}
}

// WithRetryOptions overrides how command registration is retried.
func (h *GuildEventHandler) WithRetryOptions(opts utils.RetryOptions) *GuildEventHandler {
	h.retryOptions = opts
	return h
}

// Commands returns the slash commands the bot serves.
func Commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        constants.PingCommandName,
			Description: "Check that the bot is listening",
		},
		discord.SlashCommandCreate{
			Name:        constants.RaidCommandName,
			Description: "Create a raid and collect sign-ups",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        constants.RaidTimeOption,
					Description: "When the raid starts",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        constants.RaidBossOption,
					Description: "Boss of the raid",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        constants.RaidLocationOption,
					Description: "Where the raid takes place",
					Required:    true,
				},
			},
		},
	}
}

// RegisterCommands replaces the guild's slash commands, retrying with
// exponential backoff while the REST API is unavailable.
func (h *GuildEventHandler) RegisterCommands(
	ctx context.Context, client CommandClient, applicationID snowflake.ID,
) error {
	commands, err := utils.WithRetry(ctx, func() ([]discord.ApplicationCommand, error) {
		return client.SetGuildCommands(applicationID, h.guildID, Commands(), rest.WithCtx(ctx))
	}, h.retryOptions, h.logger)
	if err != nil {
		return fmt.Errorf("failed to register guild commands: %w", err)
	}

	h.logger.Info("Registered guild commands",
		zap.String("guildID", h.guildID.String()),
		zap.Int("count", len(commands)))

	return nil
}
