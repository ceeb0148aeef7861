package domain

import (
	"strconv"
	"strings"
)

// Message is a single conversation message as returned by the source.
// Messages are immutable and never persisted directly.
type Message struct {
	// TS is the message timestamp ("<seconds>.<micros>"). It is the message
	// identity within a channel and sorts in time order.
	TS string

	// User is the author id. Empty for some bot and system messages.
	User string

	// Text is the raw message text in source markup. May be empty.
	Text string

	// ThreadTS is the timestamp of the thread root this message belongs to.
	// Empty for messages that are not part of a thread.
	ThreadTS string
}

// HasText reports whether the message carries any text.
func (m Message) HasText() bool {
	return m.Text != ""
}

// InThread reports whether the message carries a thread root timestamp.
func (m Message) InThread() bool {
	return m.ThreadTS != ""
}

// Channel is a conversation the bot can read.
type Channel struct {
	// ID is the channel identifier (e.g. C0123ABCD).
	ID string

	// Name is the display name without the leading '#'.
	Name string

	// IsMember reports whether the bot has joined the channel.
	IsMember bool
}

// ParseTS converts a message timestamp to fractional seconds since the epoch.
// Malformed timestamps parse as zero.
func ParseTS(ts string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil {
		return 0
	}
	return v
}

// MinutesBetween returns the elapsed minutes from start to end.
func MinutesBetween(start, end string) float64 {
	return (ParseTS(end) - ParseTS(start)) / 60
}
