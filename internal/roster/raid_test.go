package roster_test

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/raidbot/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRaider(t *testing.T) {
	t.Parallel()

	nick := "Aino"
	empty := ""

	tests := []struct {
		name   string
		member *discord.Member
		want   roster.Raider
	}{
		{
			name:   "nil member",
			member: nil,
			want:   roster.Raider{Name: roster.UnknownRaiderName},
		},
		{
			name:   "member without user",
			member: &discord.Member{},
			want:   roster.Raider{Name: roster.UnknownRaiderName},
		},
		{
			name: "username when no nickname",
			member: &discord.Member{
				User: discord.User{ID: 42, Username: "aino_k"},
			},
			want: roster.Raider{Name: "aino_k", UserID: 42},
		},
		{
			name: "nickname preferred",
			member: &discord.Member{
				User: discord.User{ID: 42, Username: "aino_k"},
				Nick: &nick,
			},
			want: roster.Raider{Name: "Aino", UserID: 42},
		},
		{
			name: "empty nickname falls back",
			member: &discord.Member{
				User: discord.User{ID: 7, Username: "olli"},
				Nick: &empty,
			},
			want: roster.Raider{Name: "olli", UserID: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, roster.NewRaider(tt.member))
		})
	}
}

func TestRaidAddRaider(t *testing.T) {
	t.Parallel()

	aino := roster.Raider{Name: "Aino", UserID: 42}
	olli := roster.Raider{Name: "Olli", UserID: 7}

	raid := roster.NewRaid("Lava", "20:00", "Draugr")
	raid.AddRaider(aino, 2)
	raid.AddRaider(olli, 1)
	raid.AddRaider(aino, 1)

	assert.Equal(t, []roster.Raider{aino, aino, olli, aino}, raid.Raiders)
	assert.Equal(t, 3, raid.Count(42))
	assert.Equal(t, 1, raid.Count(7))
}

func TestRaidRemoveRaider(t *testing.T) {
	t.Parallel()

	aino := roster.Raider{Name: "Aino", UserID: 42}
	olli := roster.Raider{Name: "Olli", UserID: 7}

	tests := []struct {
		name        string
		raiders     []roster.Raider
		userID      snowflake.ID
		count       int
		wantRemoved int
		wantRaiders []roster.Raider
		wantErr     bool
	}{
		{
			name:        "removes earliest entries first",
			raiders:     []roster.Raider{aino, olli, aino, aino},
			userID:      42,
			count:       2,
			wantRemoved: 2,
			wantRaiders: []roster.Raider{olli, aino},
		},
		{
			name:        "short-fall removes what exists",
			raiders:     []roster.Raider{olli, aino},
			userID:      42,
			count:       2,
			wantRemoved: 1,
			wantRaiders: []roster.Raider{olli},
			wantErr:     true,
		},
		{
			name:        "absent user leaves roster untouched",
			raiders:     []roster.Raider{olli},
			userID:      42,
			count:       1,
			wantRemoved: 0,
			wantRaiders: []roster.Raider{olli},
			wantErr:     true,
		},
		{
			name:        "empty roster",
			raiders:     []roster.Raider{},
			userID:      42,
			count:       3,
			wantRemoved: 0,
			wantRaiders: []roster.Raider{},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raid := roster.NewRaid("Lava", "20:00", "Draugr")
			raid.Raiders = append(raid.Raiders, tt.raiders...)

			removed, err := raid.RemoveRaider(tt.userID, tt.count)
			if tt.wantErr {
				require.ErrorIs(t, err, roster.ErrNotEnoughRaiders)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.wantRaiders, raid.Raiders)
		})
	}
}

func TestRaidClone(t *testing.T) {
	t.Parallel()

	raid := roster.NewRaid("Lava", "20:00", "Draugr")
	raid.AddRaider(roster.Raider{Name: "Aino", UserID: 42}, 1)

	clone := raid.Clone()
	clone.AddRaider(roster.Raider{Name: "Olli", UserID: 7}, 1)
	clone.Raiders[0].Name = "changed"

	assert.Len(t, raid.Raiders, 1)
	assert.Equal(t, "Aino", raid.Raiders[0].Name)
	assert.Equal(t, raid.ID, clone.ID)
}
