// README: Injectable clock so sweep bodies are testable at fixed instants.
package dispatch

import "time"

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
