package lifecycle

import (
	"context"
	"time"
)

// Hook describes a named shutdown hook. A positive Timeout bounds the hook's
// context on top of the deadline passed to Execute.
type Hook struct {
	Name    string
	Fn      func(ctx context.Context) error
	Timeout time.Duration
}
