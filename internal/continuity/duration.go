package continuity

import "fmt"

const (
	microsPerMilli  = int64(1_000)
	microsPerSecond = 1_000 * microsPerMilli
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
	microsPerDay    = 24 * microsPerHour
)

// FormatDurationUs renders a microsecond duration using its two most significant
// units. Values below one millisecond, negative ones included, stay in microseconds.
func FormatDurationUs(us int64) string {
	switch {
	case us >= microsPerDay:
		return fmt.Sprintf("%dd %dh", us/microsPerDay, us%microsPerDay/microsPerHour)
	case us >= microsPerHour:
		return fmt.Sprintf("%dh %dm", us/microsPerHour, us%microsPerHour/microsPerMinute)
	case us >= microsPerMinute:
		return fmt.Sprintf("%dm %ds", us/microsPerMinute, us%microsPerMinute/microsPerSecond)
	case us >= microsPerSecond:
		return fmt.Sprintf("%d sec", us/microsPerSecond)
	case us >= microsPerMilli:
		return fmt.Sprintf("%d ms", us/microsPerMilli)
	default:
		return fmt.Sprintf("%d μs", us)
	}
}
