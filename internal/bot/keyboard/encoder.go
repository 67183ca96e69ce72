package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCallbackData is the Telegram limit on inline button callback data, in bytes.
const MaxCallbackData = 64

const argSeparator = ":"

var (
	ErrEmptyCallback   = errors.New("empty callback data")
	ErrCallbackTooLong = errors.New("callback data too long")
)

// Callback is the payload of a menu button: a route and an optional argument,
// such as the page a category menu should open at.
type Callback struct {
	Route string
	Arg   string
}

// Encode renders c as callback data.
func (c Callback) Encode() (string, error) {
	if c.Route == "" {
		return "", ErrEmptyCallback
	}
	if strings.Contains(c.Arg, argSeparator) {
		return "", fmt.Errorf("callback argument %q contains %q", c.Arg, argSeparator)
	}

	data := c.Route
	if c.Arg != "" {
		data += argSeparator + c.Arg
	}
	if len(data) > MaxCallbackData {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrCallbackTooLong, len(data), MaxCallbackData)
	}

	return data, nil
}

// ParseCallback decodes callback data produced by Encode. Data ending in ")"
// is a bare route, so parenthesised names may themselves contain the separator.
func ParseCallback(data string) (Callback, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Callback{}, ErrEmptyCallback
	}
	if strings.HasSuffix(data, ")") {
		return Callback{Route: data}, nil
	}

	idx := strings.LastIndex(data, argSeparator)
	if idx == -1 {
		return Callback{Route: data}, nil
	}

	return Callback{Route: data[:idx], Arg: data[idx+len(argSeparator):]}, nil
}
