package avatar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/pkg/randx"
)

type fakeProvider struct {
	ref string
	err error

	// sawDeadline records whether Resolve passed a deadline-bounded context.
	sawDeadline bool
}

func (f *fakeProvider) RandomRef(ctx context.Context) (string, error) {
	_, f.sawDeadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

func TestResolve_ReturnsProviderRef(t *testing.T) {
	p := &fakeProvider{ref: "https://img.example/42"}

	got := Resolve(context.Background(), p)

	assert.Equal(t, "https://img.example/42", got)
	assert.True(t, p.sawDeadline, "provider calls must be bounded by a deadline")
}

func TestResolve_FallsBackToPlaceholderOnError(t *testing.T) {
	p := &fakeProvider{err: errors.New("image service unreachable")}

	got := Resolve(context.Background(), p)

	assert.Equal(t, PlaceholderRef, got)
}

func TestRandomImage_RefFormat(t *testing.T) {
	p := NewRandomImage("https://source.unsplash.com/random")

	ref, err := p.RandomRef(context.Background())
	require.NoError(t, err)

	prefix := "https://source.unsplash.com/random?sig="
	require.True(t, strings.HasPrefix(ref, prefix), "got %q", ref)

	seed, err := strconv.Atoi(strings.TrimPrefix(ref, prefix))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seed, 1)
	assert.LessOrEqual(t, seed, randx.MaxImageSeed)
}

func TestRandomImage_RefsVary(t *testing.T) {
	p := NewRandomImage("https://img.example")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ref, err := p.RandomRef(context.Background())
		require.NoError(t, err)
		seen[ref] = true
	}

	// 50 draws from 100k seeds colliding down to a single value is not a
	// thing that happens to a working generator.
	assert.Greater(t, len(seen), 1, fmt.Sprintf("expected varied refs, got %d unique", len(seen)))
}
