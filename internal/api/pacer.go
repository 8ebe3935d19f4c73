package api

import (
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/coder/quartz"
)

// Pacing holds how long the UI spends on each kind of animation.
type Pacing struct {
	Deal   time.Duration
	Reveal time.Duration
	Settle time.Duration
}

// Pacer stamps events with the time the UI should show them, so a burst of
// engine events (a whole dealer turn happens inside one Stand call) plays out
// one card at a time on the client.
type Pacer struct {
	clock  quartz.Clock
	pacing Pacing

	mu   sync.Mutex
	next time.Time
}

func NewPacer(clock quartz.Clock, pacing Pacing) *Pacer {
	return &Pacer{clock: clock, pacing: pacing}
}

// Stamp returns the show time for e and reserves the animation time that follows it.
func (p *Pacer) Stamp(e game.Event) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	at := p.clock.Now()
	if p.next.After(at) {
		at = p.next
	}

	switch e.(type) {
	case game.RoundSettledEvent:
		// Leave the last card on screen before announcing the result.
		at = at.Add(p.pacing.Settle)
		p.next = at
	case game.CardDealtEvent:
		p.next = at.Add(p.pacing.Deal)
	case game.CardRevealedEvent:
		p.next = at.Add(p.pacing.Reveal)
	default:
		p.next = at
	}

	return at
}
