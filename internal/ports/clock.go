package ports

import "time"

// Port: wall-clock source, injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}
