// Package transport sends and edits raid summaries through the Discord REST API.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrSendFailed  = errors.New("failed to send message")
	ErrEditFailed  = errors.New("failed to edit message")
	ErrReactFailed = errors.New("failed to add reaction")
)

// Transport delivers summary embeds. Every call is a single attempt.
type Transport interface {
	Send(ctx context.Context, channelID snowflake.ID, embed discord.Embed) (snowflake.ID, error)
	Edit(ctx context.Context, channelID, messageID snowflake.ID, embed discord.Embed) error
	React(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error
}

// MessageClient is the part of rest.Rest used by RestTransport.
type MessageClient interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) (*discord.Message, error)
	AddReaction(channelID snowflake.ID, messageID snowflake.ID, emoji string, opts ...rest.RequestOpt) error
}

// RestTransport implements Transport on top of the disgo REST client.
type RestTransport struct {
	client MessageClient
}

// NewRestTransport creates a transport using client, usually bot.Client.Rest().
func NewRestTransport(client MessageClient) *RestTransport {
	return &RestTransport{client: client}
}

// Send posts embed to channelID and returns the new message id.
func (t *RestTransport) Send(ctx context.Context, channelID snowflake.ID, embed discord.Embed) (snowflake.ID, error) {
	message, err := t.client.CreateMessage(channelID,
		discord.NewMessageCreateBuilder().SetEmbeds(embed).Build(),
		rest.WithCtx(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	return message.ID, nil
}

// Edit replaces the embeds of an existing message.
func (t *RestTransport) Edit(ctx context.Context, channelID, messageID snowflake.ID, embed discord.Embed) error {
	_, err := t.client.UpdateMessage(channelID, messageID,
		discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build(),
		rest.WithCtx(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEditFailed, err)
	}

	return nil
}

// React adds emoji, in "name:id" or unicode form, to a message.
func (t *RestTransport) React(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	if err := t.client.AddReaction(channelID, messageID, emoji, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("%w %s: %w", ErrReactFailed, emoji, err)
	}

	return nil
}
