package randutil

import (
	"encoding/binary"
	rand "math/rand/v2"
	"time"
)

// shuffleDomain keeps deck seeds apart from any other use of the same number.
const shuffleDomain = "blackjack/deck/shuffle:1"

// New returns a ChaCha8 backed *rand.Rand for seed. Equal seeds give equal
// streams, so a seed replays every shuffle of a session.
func New(seed int64) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], uint64(seed))
	copy(key[8:], shuffleDomain)
	return rand.New(rand.NewChaCha8(key))
}

// NewTimeSeeded returns a source seeded from the wall clock.
func NewTimeSeeded() *rand.Rand {
	return New(time.Now().UnixNano())
}
