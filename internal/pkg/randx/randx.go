/*
Package randx provides generators for connection identities and random avatar seeds.

Connection identities are UUID v4 strings, unique per live connection. Avatar seeds
are cryptographically random integers used to vary stock avatar image URLs.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// MaxImageSeed bounds the random seed appended to stock avatar URLs.
const MaxImageSeed = 100000

// ConnectionID generates a UUID v4 string identifying one WebSocket connection
// for its lifetime.
func ConnectionID() string {
	return uuid.New().String()
}

// ImageSeed returns a random integer in [1, MaxImageSeed] using crypto/rand.
func ImageSeed() (int64, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(MaxImageSeed))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random image seed: %w", err)
	}

	return num.Int64() + 1, nil
}
