package identifier

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	allocated map[string]bool
	err       error
	checks    int
}

func (m *memoryStore) IdentifierExists(ctx context.Context, id string) (bool, error) {
	m.checks++
	if m.err != nil {
		return false, m.err
	}
	return m.allocated[id], nil
}

func TestGenerateFormat(t *testing.T) {
	store := &memoryStore{allocated: map[string]bool{}}
	gen := NewGenerator(store)
	gen.randN = func(n int) int { return 7 }

	id, err := gen.Generate(context.Background(), Seed{
		Date:        time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		PhoneDigits: "+91 98765-43210",
	})
	require.NoError(t, err)
	assert.Equal(t, "05032026"+"3210"+"0007", id)
}

func TestGenerateShortPhonePadded(t *testing.T) {
	store := &memoryStore{allocated: map[string]bool{}}
	gen := NewGenerator(store)
	gen.randN = func(n int) int { return 0 }

	id, err := gen.Generate(context.Background(), Seed{
		Date:        time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		PhoneDigits: "42",
	})
	require.NoError(t, err)
	assert.Equal(t, "01012026"+"0042"+"0000", id)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	seed := Seed{Date: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), PhoneDigits: "5551234"}
	store := &memoryStore{allocated: map[string]bool{"1006202612340000": true}}
	gen := NewGenerator(store)
	calls := 0
	gen.randN = func(n int) int {
		calls++
		if calls == 1 {
			return 0
		}
		return 42
	}

	id, err := gen.Generate(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, "1006202612340042", id)
	assert.Equal(t, 2, store.checks)
}

func TestGenerateTimestampFallbackAfterExhaustion(t *testing.T) {
	seed := Seed{Date: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), PhoneDigits: "5551234"}
	store := &memoryStore{allocated: map[string]bool{"1006202612340000": true}}
	gen := NewGenerator(store)
	gen.randN = func(n int) int { return 0 }
	fixed := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	id, err := gen.Generate(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, maxAttempts, store.checks)
	assert.Equal(t, fmt.Sprintf("10062026"+"1234"+"0000"+"%d", fixed.UnixNano()), id)
}

func TestGenerateStoreErrorPropagates(t *testing.T) {
	store := &memoryStore{err: fmt.Errorf("connection refused")}
	gen := NewGenerator(store)

	_, err := gen.Generate(context.Background(), Seed{Date: time.Now(), PhoneDigits: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uniqueness check")
}

func TestGenerateUniqueAcrossManyCalls(t *testing.T) {
	store := &memoryStore{allocated: map[string]bool{}}
	gen := NewGenerator(store)
	seed := Seed{Date: time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC), PhoneDigits: "9876543210"}

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id, err := gen.Generate(context.Background(), seed)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate identifier %s at call %d", id, i)
		seen[id] = true
		store.allocated[id] = true
	}
}
