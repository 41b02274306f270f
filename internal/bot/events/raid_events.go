package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/raidbot/internal/attendance"
	"github.com/robalyx/raidbot/internal/bot/constants"
	"github.com/robalyx/raidbot/internal/bot/render"
	"github.com/robalyx/raidbot/internal/bot/transport"
	"github.com/robalyx/raidbot/internal/roster"
	"go.uber.org/zap"
)

// ErrMissingArguments is returned when a raid command lacks a required option.
var ErrMissingArguments = errors.New("missing raid command arguments")

// errNothingToRemove aborts a removal that matched no entries, so neither an
// edit nor a publish happens.
var errNothingToRemove = errors.New("no entries to remove")

// CreateRequest holds the options of a raid command.
type CreateRequest struct {
	Time     string
	Boss     string
	Location string
}

// OptionLookup is satisfied by discord.SlashCommandInteractionData.
type OptionLookup interface {
	OptString(name string) (string, bool)
}

// ParseCreateRequest reads the three raid options. Their content is not
// validated beyond presence.
func ParseCreateRequest(data OptionLookup) (CreateRequest, error) {
	var (
		req     CreateRequest
		missing []string
	)

	options := []struct {
		name string
		dst  *string
	}{
		{constants.RaidTimeOption, &req.Time},
		{constants.RaidBossOption, &req.Boss},
		{constants.RaidLocationOption, &req.Location},
	}

	for _, opt := range options {
		value, ok := data.OptString(opt.name)
		if !ok {
			missing = append(missing, opt.name)
			continue
		}
		*opt.dst = value
	}

	if len(missing) > 0 {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrMissingArguments, missing)
	}

	return req, nil
}

// ReactionEvent is a reaction added to or removed from a message.
// Member is nil when the gateway did not include member data.
type ReactionEvent struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
	UserID    snowflake.ID
	Emoji     string
	Member    *discord.Member
}

// RaidHandler turns raid commands and sign-up reactions into roster changes
// and keeps every summary message in sync with the store.
type RaidHandler struct {
	store     *roster.Store
	renderer  render.Renderer
	transport transport.Transport
	emojis    []string
	selfID    snowflake.ID
	logger    *zap.Logger
}

// NewRaidHandler creates a handler. selfID is the bot's own user id, whose
// reactions are never counted as sign-ups. emojis are added under every new
// summary message.
func NewRaidHandler(
	store *roster.Store, renderer render.Renderer, transport transport.Transport,
	emojis []string, selfID snowflake.ID, logger *zap.Logger,
) *RaidHandler {
	return &RaidHandler{
		store:     store,
		renderer:  renderer,
		transport: transport,
		emojis:    emojis,
		selfID:    selfID,
		logger:    logger.Named("raid_events"),
	}
}

// HandleCreate stores a new raid, posts its summary to channelID and binds
// the message to the raid. The message is only bound when sending succeeded.
// Failing to add the sign-up reactions is logged but not returned.
func (h *RaidHandler) HandleCreate(ctx context.Context, channelID snowflake.ID, req CreateRequest) error {
	raid := h.store.CreateRaid(req.Location, req.Time, req.Boss)

	h.logger.Info("Raid created",
		zap.String("location", raid.Location),
		zap.String("time", raid.Time),
		zap.String("boss", raid.Boss),
		zap.String("raid_id", raid.ID.String()))

	messageID, err := h.transport.Send(ctx, channelID, h.renderer.Render(raid))
	if err != nil {
		return fmt.Errorf("failed to post raid summary: %w", err)
	}

	h.store.BindMessage(messageID, raid.Location)

	for _, emoji := range h.emojis {
		if err := h.transport.React(ctx, channelID, messageID, emoji); err != nil {
			h.logger.Warn("Failed to add sign-up reaction",
				zap.String("messageID", messageID.String()),
				zap.String("emoji", emoji),
				zap.Error(err))
		}
	}

	return nil
}

// HandleReactionAdd signs the reacting member up for as many slots as the
// emoji represents. Adds without member data are ignored since the actor
// cannot be told apart from a bot.
func (h *RaidHandler) HandleReactionAdd(ctx context.Context, event ReactionEvent) error {
	if event.UserID == h.selfID || event.Member == nil || event.Member.User.ID == 0 || event.Member.User.Bot {
		return nil
	}

	slots := attendance.SlotCount(event.Emoji)
	raider := roster.NewRaider(event.Member)

	return h.apply(ctx, event, func(raid *roster.Raid) error {
		raid.AddRaider(raider, slots)
		return nil
	})
}

// HandleReactionRemove frees as many slots as the emoji represents. Remove
// events usually carry no member data, so only the bot's own id and members
// known to be bots are ignored.
func (h *RaidHandler) HandleReactionRemove(ctx context.Context, event ReactionEvent) error {
	if event.UserID == h.selfID || (event.Member != nil && event.Member.User.Bot) {
		return nil
	}

	slots := attendance.SlotCount(event.Emoji)

	return h.apply(ctx, event, func(raid *roster.Raid) error {
		removed, err := raid.RemoveRaider(event.UserID, slots)
		if err != nil {
			h.logger.Info("Removal exceeded sign-ups",
				zap.String("location", raid.Location),
				zap.String("userID", event.UserID.String()),
				zap.Int("removed", removed),
				zap.Error(err))
		}

		if removed == 0 {
			return errNothingToRemove
		}
		return nil
	})
}

// apply runs change on the raid bound to the event's message, edits the
// summary and publishes the result. Nothing is published if the edit fails.
func (h *RaidHandler) apply(ctx context.Context, event ReactionEvent, change func(raid *roster.Raid) error) error {
	raid, err := h.store.Mutate(event.MessageID, func(raid *roster.Raid) error {
		if err := change(raid); err != nil {
			return err
		}
		return h.transport.Edit(ctx, event.ChannelID, event.MessageID, h.renderer.Render(*raid))
	})

	switch {
	case errors.Is(err, roster.ErrRaidNotFound):
		h.logger.Debug("Reaction on a message without a raid",
			zap.String("messageID", event.MessageID.String()),
			zap.Error(err))
		return nil
	case errors.Is(err, errNothingToRemove):
		return nil
	case err != nil:
		return fmt.Errorf("failed to update raid: %w", err)
	}

	h.logger.Debug("Raid updated",
		zap.String("location", raid.Location),
		zap.String("userID", event.UserID.String()),
		zap.String("emoji", event.Emoji),
		zap.Int("raiders", len(raid.Raiders)))

	return nil
}
