package irc

// membership is the ordered set of channels the client intends to be joined
// to. It survives reconnects and is mutated only through join and part.
// All methods require the client mutex to be held.
type membership struct {
	channels []Channel
}

func (m *membership) contains(ch Channel) bool {
	for _, c := range m.channels {
		if c.ID == ch.ID {
			return true
		}
	}
	return false
}

// add appends the channel unless an entry with the same identity exists.
// Returns true if newly added.
func (m *membership) add(ch Channel) bool {
	if m.contains(ch) {
		return false
	}
	m.channels = append(m.channels, ch)
	return true
}

// remove deletes the channel with the same identity, preserving order.
// Returns true if removed.
func (m *membership) remove(ch Channel) bool {
	for i, c := range m.channels {
		if c.ID == ch.ID {
			m.channels = append(m.channels[:i], m.channels[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the current entries for use outside the mutex.
func (m *membership) snapshot() []Channel {
	out := make([]Channel, len(m.channels))
	copy(out, m.channels)
	return out
}
