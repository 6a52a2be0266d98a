package channel

import (
	"context"
	"io"
)

// InboundHandler is a callback invoked when a message arrives from a channel.
// The responder stays valid for the duration of the call and delivers replies
// back into the conversation the message came from.
type InboundHandler func(ctx context.Context, msg InboundMessage, r Responder) error

// Responder delivers replies into a single inbound-processing scope.
type Responder interface {
	// Reply sends one text message into the conversation.
	Reply(ctx context.Context, text string) error
	// ReplyFile forwards a file into the conversation with an optional caption.
	ReplyFile(ctx context.Context, filename string, content io.Reader, caption string) error
	// SendTyping signals the platform's typing indicator. Best effort.
	SendTyping(ctx context.Context)
	// History returns the conversation's prior messages oldest-first,
	// including the triggering message. ok is false when the platform
	// cannot enumerate history.
	History(ctx context.Context) (msgs []Message, ok bool, err error)
}

// Adapter is the base interface every channel adapter must implement.
type Adapter interface {
	Type() ChannelType
	// Connect logs the adapter in and starts delivering inbound events to
	// the handler until the returned stop function is called.
	Connect(ctx context.Context, handler InboundHandler) (stop func(context.Context) error, err error)
}
