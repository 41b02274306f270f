package roster

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// UnknownRaiderName is shown for raiders whose member data was not delivered.
const UnknownRaiderName = "Unknown"

// Raider is a single sign-up slot held by a guild member.
// Only UserID is used when comparing or removing raiders.
type Raider struct {
	Name   string
	UserID snowflake.ID
}

// NewRaider builds a raider from live member data. The nickname is preferred
// over the username. A nil member or a member without a user yields an
// unknown raider with a zero id.
func NewRaider(member *discord.Member) Raider {
	if member == nil || member.User.ID == 0 {
		return Raider{Name: UnknownRaiderName}
	}

	name := member.User.Username
	if member.Nick != nil && *member.Nick != "" {
		name = *member.Nick
	}

	return Raider{
		Name:   name,
		UserID: member.User.ID,
	}
}
