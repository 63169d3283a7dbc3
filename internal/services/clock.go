package services

import (
	"time"

	"courier-route-service/internal/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock used outside tests.
func SystemClock() ports.Clock { return systemClock{} }
