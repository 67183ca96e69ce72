package continuity

import "time"

// Clock supplies wall-clock timestamps in microseconds since the Unix epoch.
type Clock interface {
	NowMicros() int64
}

// SystemClock reads the system wall clock.
type SystemClock struct{}

// NowMicros implements Clock.
func (SystemClock) NowMicros() int64 {
	return time.Now().UnixMicro()
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() int64

// NowMicros implements Clock.
func (f ClockFunc) NowMicros() int64 {
	return f()
}
