/*
Package avatar assigns avatar image references to joining users.

Avatar generation is an external, potentially slow or failing dependency, so it
is modeled as a pluggable Provider. Resolution is always bounded by a timeout
and degrades to a placeholder reference; a join never blocks or fails because
an avatar could not be produced.
*/
package avatar

import (
	"context"
	"fmt"
	"time"

	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

// PlaceholderRef is the avatar reference used when the provider fails or times out.
const PlaceholderRef = "/static/avatar-placeholder.png"

// ResolveTimeout bounds one avatar resolution call.
const ResolveTimeout = 3 * time.Second

// Provider produces avatar image references for new users.
type Provider interface {
	// RandomRef returns a new avatar image URI.
	RandomRef(ctx context.Context) (string, error)
}

// Resolve fetches an avatar reference from the provider, bounded by
// ResolveTimeout. Any failure degrades to PlaceholderRef.
func Resolve(ctx context.Context, p Provider) string {
	ctx, cancel := context.WithTimeout(ctx, ResolveTimeout)
	defer cancel()

	ref, err := p.RandomRef(ctx)
	if err != nil {
		logx.Warn("Avatar provider failed, using placeholder.", "error", err.Error())
		return PlaceholderRef
	}

	return ref
}

// RandomImage serves avatar references from a stock random-image service by
// appending a random seed to a base URL. It never performs network I/O itself.
type RandomImage struct {
	baseURL string
}

// NewRandomImage constructs a RandomImage provider for the given base URL.
func NewRandomImage(baseURL string) *RandomImage {
	return &RandomImage{baseURL: baseURL}
}

// RandomRef returns the base URL with a fresh random sig parameter.
func (p *RandomImage) RandomRef(_ context.Context) (string, error) {
	seed, err := randx.ImageSeed()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s?sig=%d", p.baseURL, seed), nil
}
