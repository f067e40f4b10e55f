// ABOUTME: Wire-frame parsing for the push channel
// ABOUTME: Closed sum type over fragment/full/error frames plus channel-id routing

package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minnowchat/minnow/internal/chat"
)

// TitleTarget is the reserved inner channel segment addressing a
// conversation's title instead of an interaction.
const TitleTarget = "title"

// Channel is a parsed routing key of the form "<conversationId>/<innerId>".
type Channel struct {
	ConversationID string
	TargetID       string
}

// IsTitle reports whether the frame targets the conversation title.
func (c Channel) IsTitle() bool {
	return c.TargetID == TitleTarget
}

// ParseChannel splits a raw channel id. It must yield exactly two non-empty
// segments; anything else (no separator, empty segment, extra segments) is
// unroutable and the frame carrying it gets dropped.
func ParseChannel(raw string) (Channel, bool) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Channel{}, false
	}
	return Channel{ConversationID: parts[0], TargetID: parts[1]}, true
}

// Frame is one inbound push event. The set of kinds is closed: dispatch
// switches exhaustively over FragmentFrame, FullFrame, and ErrorFrame, so
// adding a kind is a compile-visible change.
type Frame interface {
	Channel() Channel
	frame()
}

// FragmentFrame carries incremental partial content to append.
type FragmentFrame struct {
	Target Channel
	Text   string
}

func (f FragmentFrame) Channel() Channel { return f.Target }
func (f FragmentFrame) frame()           {}

// FullFrame carries complete final content; for an interaction target it is
// the terminal event that stamps completion.
type FullFrame struct {
	Target Channel
	Text   string
}

func (f FullFrame) Channel() Channel { return f.Target }
func (f FullFrame) frame()           {}

// ErrorFrame carries a structured failure for an interaction.
type ErrorFrame struct {
	Target Channel
	Record chat.ErrorRecord
}

func (f ErrorFrame) Channel() Channel { return f.Target }
func (f ErrorFrame) frame()           {}

// wireFrame is the raw JSON shape on the channel. Exactly one of the three
// payload fields is populated per type.
type wireFrame struct {
	ChannelID       string            `json:"channel_id"`
	Type            string            `json:"type"`
	MessageFragment *string           `json:"message_fragment"`
	MessageFull     *string           `json:"message_full"`
	Error           *chat.ErrorRecord `json:"error"`
}

// ParseFrame decodes one wire message into a Frame. Frames that do not
// parse, carry an unknown type, an unroutable channel id, or a missing
// payload return an error; callers drop them.
func ParseFrame(data []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	target, ok := ParseChannel(w.ChannelID)
	if !ok {
		return nil, fmt.Errorf("unroutable channel id %q", w.ChannelID)
	}

	switch w.Type {
	case "message_fragment":
		if w.MessageFragment == nil {
			return nil, fmt.Errorf("message_fragment frame without payload")
		}
		return FragmentFrame{Target: target, Text: *w.MessageFragment}, nil
	case "message_full":
		if w.MessageFull == nil {
			return nil, fmt.Errorf("message_full frame without payload")
		}
		return FullFrame{Target: target, Text: *w.MessageFull}, nil
	case "error":
		if w.Error == nil {
			return nil, fmt.Errorf("error frame without payload")
		}
		return ErrorFrame{Target: target, Record: *w.Error}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", w.Type)
	}
}
