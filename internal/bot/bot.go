package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/robalyx/raidbot/internal/bot/constants"
	botEvents "github.com/robalyx/raidbot/internal/bot/events"
	"github.com/robalyx/raidbot/internal/bot/render"
	"github.com/robalyx/raidbot/internal/bot/transport"
	"github.com/robalyx/raidbot/internal/bot/utils"
	"github.com/robalyx/raidbot/internal/roster"
	"github.com/robalyx/raidbot/internal/setup/config"
)

// Bot connects the raid handlers to the Discord gateway. Every event is
// handled in its own goroutine so slow REST calls never block the gateway.
type Bot struct {
	client         bot.Client
	logger         *zap.Logger
	raidHandler    *botEvents.RaidHandler
	guildHandler   *botEvents.GuildEventHandler
	requestTimeout time.Duration
	handlers       conc.WaitGroup
}

// New creates the Discord client and the handlers serving store.
func New(cfg *config.BotConfig, store *roster.Store, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		logger:         logger.Named("bot"),
		guildHandler:   botEvents.NewGuildEventHandler(snowflake.ID(cfg.Discord.GuildID), logger),
		requestTimeout: time.Duration(cfg.RequestTimeout) * time.Millisecond,
	}

	client, err := disgo.New(cfg.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMessageReactions,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:                         b.handleReady,
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnGuildMessageReactionAdd:       b.handleReactionAdd,
			OnGuildMessageReactionRemove:    b.handleReactionRemove,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.raidHandler = botEvents.NewRaidHandler(
		store,
		render.NewEmbedRenderer(cfg.Embed.Color, cfg.Embed.Footer),
		transport.NewRestTransport(client.Rest()),
		cfg.Discord.SignUpEmojis,
		client.ID(),
		logger,
	)

	return b, nil
}

// Start opens the gateway connection. Commands are registered once the
// gateway reports ready.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")
	return b.client.OpenGateway(ctx)
}

// Close shuts down the gateway and waits for in-flight handlers.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
	b.handlers.Wait()
}

// handleReady registers the guild commands.
func (b *Bot) handleReady(event *events.Ready) {
	b.logger.Info("Connected to gateway", zap.String("user", event.User.Username))

	b.dispatch("ready", nil, func(ctx context.Context) error {
		return b.guildHandler.RegisterCommands(ctx, event.Client().Rest(), event.Client().ApplicationID())
	}, false)
}

// handleApplicationCommandInteraction defers the response, runs the command
// and replaces the deferred response with its reply.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	if event.Data.Type() != discord.ApplicationCommandTypeSlash {
		return
	}

	data := event.SlashCommandInteractionData()
	fields := []zap.Field{
		zap.String("command", data.CommandName()),
		zap.String("userID", event.User().ID.String()),
	}

	b.dispatch("command", fields, func(ctx context.Context) error {
		if err := event.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer create message: %w", err)
		}

		reply := constants.InternalErrorText

		var pc panics.Catcher
		pc.Try(func() {
			reply = b.runCommand(ctx, event.Channel().ID(), data)
		})
		if r := pc.Recovered(); r != nil {
			b.logger.Error("Panic in command handler", append(fields, zap.Error(r.AsError()))...)
		}

		_, err := event.Client().Rest().UpdateInteractionResponse(
			event.ApplicationID(), event.Token(),
			discord.NewMessageUpdateBuilder().SetContent(utils.GetTimestampedSubtext(reply)).Build(),
			rest.WithCtx(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to respond to command: %w", err)
		}
		return nil
	}, true)
}

// runCommand executes a slash command and returns the text to reply with.
func (b *Bot) runCommand(ctx context.Context, channelID snowflake.ID, data discord.SlashCommandInteractionData) string {
	switch data.CommandName() {
	case constants.PingCommandName:
		return constants.PingReply

	case constants.RaidCommandName:
		req, err := botEvents.ParseCreateRequest(data)
		if err != nil {
			b.logger.Error("Malformed raid command", zap.Error(err))
			return constants.RaidFailedReply
		}

		if err := b.raidHandler.HandleCreate(ctx, channelID, req); err != nil {
			b.logger.Warn("Failed to create raid",
				zap.String("location", req.Location),
				zap.Error(err))
			return constants.RaidFailedReply
		}
		return constants.RaidCreatedReply

	default:
		return constants.UnknownReply
	}
}

func (b *Bot) handleReactionAdd(event *events.GuildMessageReactionAdd) {
	member := event.Member
	reaction := reactionEvent(event.GenericGuildMessageReaction, &member)

	b.dispatch("reaction_add", reactionFields(reaction), func(ctx context.Context) error {
		return b.raidHandler.HandleReactionAdd(ctx, reaction)
	}, true)
}

func (b *Bot) handleReactionRemove(event *events.GuildMessageReactionRemove) {
	reaction := reactionEvent(event.GenericGuildMessageReaction, nil)

	b.dispatch("reaction_remove", reactionFields(reaction), func(ctx context.Context) error {
		return b.raidHandler.HandleReactionRemove(ctx, reaction)
	}, true)
}

// dispatch runs fn in a tracked goroutine, recovering panics and logging
// errors. REST calls made by fn are bounded by the request timeout when
// timed is set.
func (b *Bot) dispatch(name string, fields []zap.Field, fn func(ctx context.Context) error, timed bool) {
	b.handlers.Go(func() {
		start := time.Now()

		ctx := context.Background()
		if timed && b.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.requestTimeout)
			defer cancel()
		}

		logger := b.logger.With(append(fields, zap.String("handler", name))...)

		var pc panics.Catcher
		pc.Try(func() {
			if err := fn(ctx); err != nil {
				logger.Warn("Event handler failed", zap.Error(err))
			}
		})

		if r := pc.Recovered(); r != nil {
			logger.Error("Panic in event handler",
				zap.Any("panic", r.Value),
				zap.Error(r.AsError()))
		}

		logger.Debug("Event handled", zap.Duration("duration", time.Since(start)))
	})
}

// reactionEvent converts a gateway reaction into the handler's event type.
func reactionEvent(event *events.GenericGuildMessageReaction, member *discord.Member) botEvents.ReactionEvent {
	return botEvents.ReactionEvent{
		ChannelID: event.ChannelID,
		MessageID: event.MessageID,
		UserID:    event.UserID,
		Emoji:     emojiReaction(event.Emoji),
		Member:    member,
	}
}

// emojiReaction returns the "name:id" encoding of a custom emoji or the
// bare name of a unicode emoji.
func emojiReaction(emoji discord.PartialEmoji) string {
	name := ""
	if emoji.Name != nil {
		name = *emoji.Name
	}

	if emoji.ID == nil {
		return name
	}
	return name + ":" + emoji.ID.String()
}

func reactionFields(event botEvents.ReactionEvent) []zap.Field {
	return []zap.Field{
		zap.String("messageID", event.MessageID.String()),
		zap.String("userID", event.UserID.String()),
		zap.String("emoji", event.Emoji),
	}
}
