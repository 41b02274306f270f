package roster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrRaidNotFound is returned when a message is not bound to a raid or the
	// bound location holds no raid.
	ErrRaidNotFound = errors.New("raid not found")
	// ErrRaidReplaced is returned by Mutate when the raid was recreated at the
	// same location while the mutation was in flight.
	ErrRaidReplaced = errors.New("raid was replaced during mutation")
)

// Store holds every active raid keyed by location, and the summary messages
// bound to those locations.
//
// Both indices are guarded by one RWMutex. Independently of that lock, every
// location has its own mutex which serializes Mutate, AddAttendance and
// RemoveAttendance for that location, so two reactions on the same raid can
// never overwrite each other's result. The RWMutex is never held while a
// Mutate callback runs.
type Store struct {
	mu       sync.RWMutex
	raids    map[string]Raid
	messages map[snowflake.ID]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		raids:    make(map[string]Raid),
		messages: make(map[snowflake.ID]string),
		locks:    make(map[string]*sync.Mutex),
	}
}

// CreateRaid stores a new raid with an empty roster at location. An existing
// raid at the same location is replaced without warning: the last create wins.
func (s *Store) CreateRaid(location, time, boss string) Raid {
	raid := NewRaid(location, time, boss)

	s.mu.Lock()
	s.raids[location] = raid.Clone()
	s.mu.Unlock()

	return raid
}

// BindMessage records that messageID displays the raid at location. Only call
// this once the message was sent successfully.
func (s *Store) BindMessage(messageID snowflake.ID, location string) {
	s.mu.Lock()
	s.messages[messageID] = location
	s.mu.Unlock()
}

// ResolveByMessage returns a private copy of the raid shown by messageID.
func (s *Store) ResolveByMessage(messageID snowflake.ID) (Raid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	location, ok := s.messages[messageID]
	if !ok {
		return Raid{}, fmt.Errorf("%w: message %s is not bound", ErrRaidNotFound, messageID)
	}

	raid, ok := s.raids[location]
	if !ok {
		return Raid{}, fmt.Errorf("%w: location %q", ErrRaidNotFound, location)
	}

	return raid.Clone(), nil
}

// RaidAt returns a private copy of the raid stored at location.
func (s *Store) RaidAt(location string) (Raid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raid, ok := s.raids[location]
	if !ok {
		return Raid{}, fmt.Errorf("%w: location %q", ErrRaidNotFound, location)
	}

	return raid.Clone(), nil
}

// AddAttendance appends count copies of raider to the raid at location.
func (s *Store) AddAttendance(location string, raider Raider, count int) error {
	unlock := s.lockLocation(location)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	raid, ok := s.raids[location]
	if !ok {
		return fmt.Errorf("%w: location %q", ErrRaidNotFound, location)
	}

	raid = raid.Clone()
	raid.AddRaider(raider, count)
	s.raids[location] = raid

	return nil
}

// RemoveAttendance removes up to count entries of userID from the raid at
// location. Whatever could be removed is kept removed even when the result
// wraps ErrNotEnoughRaiders.
func (s *Store) RemoveAttendance(location string, userID snowflake.ID, count int) (int, error) {
	unlock := s.lockLocation(location)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	raid, ok := s.raids[location]
	if !ok {
		return 0, fmt.Errorf("%w: location %q", ErrRaidNotFound, location)
	}

	raid = raid.Clone()
	removed, err := raid.RemoveRaider(userID, count)
	s.raids[location] = raid

	return removed, err
}

// UpdateRaid replaces the raid stored at location in one step. It does not
// take the location mutex, so it must not be called from a Mutate callback
// expecting serialization with other mutations.
func (s *Store) UpdateRaid(location string, raid Raid) {
	s.mu.Lock()
	s.raids[location] = raid.Clone()
	s.mu.Unlock()
}

// Mutate resolves the raid bound to messageID and hands a private copy to fn.
// The copy is published only if fn returns nil, and only if the raid at that
// location has not been recreated in the meantime.
//
// Calls for the same location run one at a time, so fn may perform slow
// network I/O such as editing the summary message. The published raid is
// returned.
func (s *Store) Mutate(messageID snowflake.ID, fn func(raid *Raid) error) (Raid, error) {
	s.mu.RLock()
	location, ok := s.messages[messageID]
	s.mu.RUnlock()

	if !ok {
		return Raid{}, fmt.Errorf("%w: message %s is not bound", ErrRaidNotFound, messageID)
	}

	unlock := s.lockLocation(location)
	defer unlock()

	raid, err := s.RaidAt(location)
	if err != nil {
		return Raid{}, err
	}

	if err := fn(&raid); err != nil {
		return Raid{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.raids[location]
	if !ok || current.ID != raid.ID {
		return Raid{}, fmt.Errorf("%w: location %q", ErrRaidReplaced, location)
	}

	s.raids[location] = raid.Clone()

	return raid, nil
}

// Len returns the number of stored raids.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.raids)
}

// lockLocation acquires the mutex dedicated to location and returns its
// release function. Raids are never deleted so neither are their mutexes.
func (s *Store) lockLocation(location string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[location]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[location] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
