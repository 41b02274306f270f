package roster

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// ErrNotEnoughRaiders is returned when a removal asks for more slots than the
// raider currently holds. The slots that did exist are still removed.
var ErrNotEnoughRaiders = errors.New("not enough raider entries to remove")

// Raid is one scheduled event and its attendance list.
//
// Raiders is ordered and may contain the same user several times, one entry
// per reserved slot. ID changes every time a raid is created at a location so
// stale snapshots of a replaced raid can be told apart from the current one.
type Raid struct {
	ID       uuid.UUID
	Time     string
	Boss     string
	Location string
	Raiders  []Raider
}

// NewRaid creates a raid with an empty attendance list.
func NewRaid(location, time, boss string) Raid {
	return Raid{
		ID:       uuid.New(),
		Time:     time,
		Boss:     boss,
		Location: location,
		Raiders:  []Raider{},
	}
}

// AddRaider appends count copies of the raider. Repeated calls with the same
// raider are not deduplicated: every reaction is a separate sign-up.
func (r *Raid) AddRaider(raider Raider, count int) {
	for range count {
		r.Raiders = append(r.Raiders, raider)
	}
}

// RemoveRaider removes up to count entries belonging to userID, earliest
// first. It returns how many entries were removed and wraps
// ErrNotEnoughRaiders if that is fewer than count.
func (r *Raid) RemoveRaider(userID snowflake.ID, count int) (int, error) {
	removed := 0
	kept := r.Raiders[:0]

	for _, raider := range r.Raiders {
		if removed < count && raider.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, raider)
	}

	// Clear the tail so dropped entries are not retained by the backing array
	clear(r.Raiders[len(kept):])
	r.Raiders = kept

	if removed < count {
		return removed, fmt.Errorf("%w: user %s had %d of %d", ErrNotEnoughRaiders, userID, removed, count)
	}

	return removed, nil
}

// Count returns how many slots the user holds.
func (r *Raid) Count(userID snowflake.ID) int {
	n := 0
	for _, raider := range r.Raiders {
		if raider.UserID == userID {
			n++
		}
	}
	return n
}

// Clone returns a copy that shares no attendance storage with r.
func (r Raid) Clone() Raid {
	raiders := make([]Raider, len(r.Raiders))
	copy(raiders, r.Raiders)
	r.Raiders = raiders
	return r
}
