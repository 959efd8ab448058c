package alerting

import (
	"context"
	"strings"
)

// Digest headers. One message per non-empty category, one symbol per line.
const (
	CrossedHeader = "📉 Crossed the support band:"
	NearHeader    = "📡 Near the support band:"
)

// Message is one plain-text digest ready for dispatch.
type Message struct {
	Classification string
	Header         string
	Symbols        []string
}

// Text renders the digest: header followed by one symbol per line.
func (m Message) Text() string {
	builder := strings.Builder{}
	builder.WriteString(m.Header)
	for _, symbol := range m.Symbols {
		builder.WriteString("\n")
		builder.WriteString(symbol)
	}
	return builder.String()
}

// BuildDigests groups run results into at most two digest messages. Empty
// categories produce no message. Dispatch is the caller's concern.
func BuildDigests(crossed, near []string) []Message {
	var messages []Message
	if len(crossed) > 0 {
		messages = append(messages, Message{
			Classification: "crossed",
			Header:         CrossedHeader,
			Symbols:        crossed,
		})
	}
	if len(near) > 0 {
		messages = append(messages, Message{
			Classification: "near",
			Header:         NearHeader,
			Symbols:        near,
		})
	}
	return messages
}

// Notifier delivers a digest message to a destination.
type Notifier interface {
	Notify(ctx context.Context, message Message) error
}
