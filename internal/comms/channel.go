package comms

import (
	"errors"
	"fmt"
)

var ErrRateLimited = errors.New("comms: already broadcast this round")

// Sender is the environment's broadcast capability.
type Sender interface {
	Round() int
	Broadcast(raw uint32) error
}

// Channel enforces one broadcast per agent per round.
type Channel struct {
	lastRound int
	hasSent   bool
	sent      int
}

// SentThisRound reports whether a message already went out in round.
func (c *Channel) SentThisRound(round int) bool {
	return c.hasSent && c.lastRound == round
}

// Sent is the number of messages broadcast so far.
func (c *Channel) Sent() int { return c.sent }

// Send encodes and broadcasts m.
func (c *Channel) Send(s Sender, m Message) error {
	round := s.Round()
	if c.SentThisRound(round) {
		return ErrRateLimited
	}
	raw, err := m.Pack()
	if err != nil {
		return err
	}
	if err := s.Broadcast(raw); err != nil {
		return fmt.Errorf("broadcast %s: %w", m.Type, err)
	}
	c.lastRound = round
	c.hasSent = true
	c.sent++
	return nil
}

// Flush sends the most urgent staged message. A message the environment
// refused goes back on its tier; one that cannot be encoded is dropped.
func (c *Channel) Flush(s Sender, buf *PriorityBuffer) (Message, bool, error) {
	if c.SentThisRound(s.Round()) {
		return Message{}, false, ErrRateLimited
	}
	m, tier, ok := buf.Pop()
	if !ok {
		return Message{}, false, nil
	}
	if err := c.Send(s, m); err != nil {
		if !errors.Is(err, ErrOutOfRange) {
			buf.Push(m, tier)
		}
		return m, false, err
	}
	return m, true, nil
}
