// Package render builds the raid summary shown in Discord.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/robalyx/raidbot/internal/bot/constants"
	"github.com/robalyx/raidbot/internal/bot/utils"
	"github.com/robalyx/raidbot/internal/roster"
)

// Renderer turns a raid into the embed of its summary message.
type Renderer interface {
	Render(raid roster.Raid) discord.Embed
}

// EmbedRenderer renders raids as a single embed with one field per detail.
type EmbedRenderer struct {
	color  int
	footer string
	now    func() time.Time
}

// NewEmbedRenderer creates a renderer using the given colour and footer.
// A zero colour falls back to the default embed colour.
func NewEmbedRenderer(color int, footer string) *EmbedRenderer {
	if color == 0 {
		color = constants.DefaultEmbedColor
	}

	return &EmbedRenderer{
		color:  color,
		footer: footer,
		now:    time.Now,
	}
}

// WithClock returns a copy of the renderer using now for embed timestamps.
func (r *EmbedRenderer) WithClock(now func() time.Time) *EmbedRenderer {
	clone := *r
	clone.now = now
	return &clone
}

// Render implements Renderer.
func (r *EmbedRenderer) Render(raid roster.Raid) discord.Embed {
	builder := discord.NewEmbedBuilder().
		SetTitle(constants.RaidEmbedTitle).
		SetColor(r.color).
		AddField(constants.RaidTimeField, fieldValue(raid.Time), true).
		AddField(constants.RaidBossField, fieldValue(raid.Boss), true).
		AddField(constants.RaidLocationField, fieldValue(raid.Location), false).
		AddField(signedUpTitle(raid), RaiderList(raid), false).
		SetTimestamp(r.now())

	if r.footer != "" {
		builder.SetFooterText(r.footer)
	}

	return builder.Build()
}

// RaiderList returns one line per attendance entry, or a placeholder when
// nobody has signed up. Lists too long for an embed field are cut with a
// note of how many entries were left out.
func RaiderList(raid roster.Raid) string {
	if len(raid.Raiders) == 0 {
		return constants.RaidNoSignUpsText
	}

	var sb strings.Builder
	for i, raider := range raid.Raiders {
		line := utils.TruncateString(raider.Name, constants.MaxEmbedFieldLength/4) + "\n"

		remaining := len(raid.Raiders) - i
		more := fmt.Sprintf("... and %d more", remaining)
		if sb.Len()+len(line)+len(more) > constants.MaxEmbedFieldLength {
			sb.WriteString(more)
			return sb.String()
		}

		sb.WriteString(line)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// signedUpTitle appends the slot count to the attendee field name.
func signedUpTitle(raid roster.Raid) string {
	if len(raid.Raiders) == 0 {
		return constants.RaidSignedUpField
	}
	return fmt.Sprintf("%s (%d)", constants.RaidSignedUpField, len(raid.Raiders))
}

// fieldValue keeps embed fields valid since Discord rejects empty values.
func fieldValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return utils.TruncateString(value, constants.MaxEmbedFieldLength)
}
