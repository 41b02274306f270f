package roster_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/raidbot/internal/roster"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aino = roster.Raider{Name: "Aino", UserID: 42}

func TestStoreCreateAndResolve(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	created := s.CreateRaid("Lava", "20:00", "Draugr")
	s.BindMessage(1001, "Lava")

	resolved, err := s.ResolveByMessage(1001)
	require.NoError(t, err)
	assert.Equal(t, created, resolved)
	assert.Equal(t, "Lava", resolved.Location)
	assert.Equal(t, "20:00", resolved.Time)
	assert.Equal(t, "Draugr", resolved.Boss)
	assert.Empty(t, resolved.Raiders)
}

func TestStoreResolveMiss(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()

	t.Run("unbound message", func(t *testing.T) {
		t.Parallel()
		_, err := s.ResolveByMessage(2002)
		assert.ErrorIs(t, err, roster.ErrRaidNotFound)
	})

	t.Run("binding without raid", func(t *testing.T) {
		t.Parallel()
		s.BindMessage(3003, "Nowhere")
		_, err := s.ResolveByMessage(3003)
		assert.ErrorIs(t, err, roster.ErrRaidNotFound)
	})
}

func TestStoreResolveReturnsSnapshot(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	s.CreateRaid("Lava", "20:00", "Draugr")
	s.BindMessage(1001, "Lava")

	snapshot, err := s.ResolveByMessage(1001)
	require.NoError(t, err)
	snapshot.AddRaider(aino, 3)

	stored, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Empty(t, stored.Raiders)
}

func TestStoreAttendance(t *testing.T) {
	t.Parallel()

	olli := roster.Raider{Name: "Olli", UserID: 7}

	s := roster.NewStore()
	s.CreateRaid("Lava", "20:00", "Draugr")

	require.NoError(t, s.AddAttendance("Lava", aino, 2))
	require.NoError(t, s.AddAttendance("Lava", olli, 1))
	require.NoError(t, s.AddAttendance("Lava", aino, 1))

	raid, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Equal(t, []roster.Raider{aino, aino, olli, aino}, raid.Raiders)

	removed, err := s.RemoveAttendance("Lava", 42, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	raid, err = s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Equal(t, []roster.Raider{aino, olli, aino}, raid.Raiders)
}

func TestStoreRemoveShortFall(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	s.CreateRaid("Lava", "20:00", "Draugr")
	require.NoError(t, s.AddAttendance("Lava", aino, 1))

	removed, err := s.RemoveAttendance("Lava", 42, 2)
	require.ErrorIs(t, err, roster.ErrNotEnoughRaiders)
	assert.Equal(t, 1, removed)

	raid, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Empty(t, raid.Raiders)
}

func TestStoreUnknownLocation(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()

	err := s.AddAttendance("Nowhere", aino, 1)
	require.ErrorIs(t, err, roster.ErrRaidNotFound)

	_, err = s.RemoveAttendance("Nowhere", 42, 1)
	require.ErrorIs(t, err, roster.ErrRaidNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStoreCreateOverwrites(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	s.CreateRaid("Lava", "20:00", "Draugr")
	require.NoError(t, s.AddAttendance("Lava", aino, 2))

	second := s.CreateRaid("Lava", "21:00", "Jotun")

	raid, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Equal(t, second, raid)
	assert.Empty(t, raid.Raiders)
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpdateRaid(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	raid := s.CreateRaid("Lava", "20:00", "Draugr")
	raid.AddRaider(aino, 1)
	s.UpdateRaid("Lava", raid)

	// Mutating the caller's copy afterwards must not leak into the store
	raid.AddRaider(aino, 1)

	stored, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Len(t, stored.Raiders, 1)
}

func TestStoreMutate(t *testing.T) {
	t.Parallel()

	t.Run("publishes on success", func(t *testing.T) {
		t.Parallel()

		s := roster.NewStore()
		s.CreateRaid("Lava", "20:00", "Draugr")
		s.BindMessage(1001, "Lava")

		published, err := s.Mutate(1001, func(raid *roster.Raid) error {
			raid.AddRaider(aino, 2)
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, published.Raiders, 2)

		stored, err := s.RaidAt("Lava")
		require.NoError(t, err)
		assert.Equal(t, published, stored)
	})

	t.Run("discards on callback error", func(t *testing.T) {
		t.Parallel()

		s := roster.NewStore()
		s.CreateRaid("Lava", "20:00", "Draugr")
		s.BindMessage(1001, "Lava")

		errEdit := errors.New("edit failed")
		_, err := s.Mutate(1001, func(raid *roster.Raid) error {
			raid.AddRaider(aino, 2)
			return errEdit
		})
		require.ErrorIs(t, err, errEdit)

		stored, err := s.RaidAt("Lava")
		require.NoError(t, err)
		assert.Empty(t, stored.Raiders)
	})

	t.Run("unbound message skips callback", func(t *testing.T) {
		t.Parallel()

		s := roster.NewStore()
		called := false
		_, err := s.Mutate(2002, func(*roster.Raid) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, roster.ErrRaidNotFound)
		assert.False(t, called)
	})

	t.Run("recreated raid is not overwritten", func(t *testing.T) {
		t.Parallel()

		s := roster.NewStore()
		s.CreateRaid("Lava", "20:00", "Draugr")
		s.BindMessage(1001, "Lava")

		var replacement roster.Raid
		_, err := s.Mutate(1001, func(raid *roster.Raid) error {
			raid.AddRaider(aino, 1)
			replacement = s.CreateRaid("Lava", "22:00", "Jotun")
			return nil
		})
		require.ErrorIs(t, err, roster.ErrRaidReplaced)

		stored, err := s.RaidAt("Lava")
		require.NoError(t, err)
		assert.Equal(t, replacement, stored)
	})
}

func TestStoreConcurrentMutations(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	s.CreateRaid("Lava", "20:00", "Draugr")
	s.BindMessage(1001, "Lava")

	const workers = 50

	var wg conc.WaitGroup
	for i := range workers {
		wg.Go(func() {
			raider := roster.Raider{Name: "raider", UserID: snowflake.ID(i + 1)}
			_, err := s.Mutate(1001, func(raid *roster.Raid) error {
				raid.AddRaider(raider, 1)
				return nil
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	stored, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Len(t, stored.Raiders, workers)
}

func TestStoreConcurrentCreate(t *testing.T) {
	t.Parallel()

	s := roster.NewStore()
	times := []string{"18:00", "19:00", "20:00", "21:00"}

	var (
		wg   conc.WaitGroup
		done atomic.Int32
	)
	for _, tm := range times {
		wg.Go(func() {
			s.CreateRaid("Lava", tm, "Draugr")
			done.Add(1)
		})
	}
	wg.Wait()

	require.Equal(t, int32(len(times)), done.Load())
	assert.Equal(t, 1, s.Len())

	stored, err := s.RaidAt("Lava")
	require.NoError(t, err)
	assert.Contains(t, times, stored.Time)
	assert.Empty(t, stored.Raiders)
}
