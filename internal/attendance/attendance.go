// Package attendance translates sign-up reactions into slot counts.
package attendance

import "strings"

// DefaultSlots is the slot count of any emoji outside the sign-up vocabulary.
const DefaultSlots = 1

// emojiSeparator splits the emoji name from its id in a reaction encoding.
const emojiSeparator = ":"

var slotPrefixes = []struct {
	prefix string
	slots  int
}{
	{"1_", 1},
	{"2_", 2},
	{"3_", 3},
}

// EmojiName returns the name part of a raw reaction encoding such as
// "2_:503269083731460107". Unicode emoji have no id and are returned as is.
func EmojiName(raw string) string {
	name, _, _ := strings.Cut(raw, emojiSeparator)
	return name
}

// SlotCount returns how many attendance slots one reaction with the given
// raw encoding represents. It never fails.
func SlotCount(raw string) int {
	name := EmojiName(raw)
	for _, p := range slotPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.slots
		}
	}
	return DefaultSlots
}
