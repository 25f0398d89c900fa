// Package identifier produces unique, human-readable ticket numbers.
package identifier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const maxAttempts = 5

// ExistsChecker reports whether a candidate identifier is already allocated.
type ExistsChecker interface {
	IdentifierExists(ctx context.Context, id string) (bool, error)
}

// Generator composes ticket numbers from the request date and the customer
// phone number, with bounded collision retry against the store.
type Generator struct {
	store ExistsChecker
	randN func(n int) int
	now   func() time.Time
}

// NewGenerator constructs a Generator backed by the given store.
func NewGenerator(store ExistsChecker) *Generator {
	return &Generator{
		store: store,
		randN: rand.IntN,
		now:   time.Now,
	}
}

// Seed carries the inputs a ticket number is derived from.
type Seed struct {
	Date        time.Time
	PhoneDigits string
}

// Generate allocates an identifier of the form DDMMYYYY + last4(phone) +
// 4 random digits, unique against the store at allocation time. After five
// colliding attempts it appends a monotonic timestamp suffix instead of
// failing the surrounding operation; the residual collision chance is
// astronomically small and accepted in favour of availability.
func (g *Generator) Generate(ctx context.Context, seed Seed) (string, error) {
	prefix := seed.Date.Format("02012006") + lastFourDigits(seed.PhoneDigits)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%04d", prefix, g.randN(10000))
		exists, err := g.store.IdentifierExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("identifier: uniqueness check: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	// Retries exhausted. The suffix makes the identifier unique for all
	// practical purposes without another round-trip.
	return fmt.Sprintf("%s%04d%d", prefix, g.randN(10000), g.now().UnixNano()), nil
}

// lastFourDigits strips non-digit characters and returns the last four,
// zero-padded on the left when fewer remain.
func lastFourDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	for len(digits) < 4 {
		digits = "0" + digits
	}
	return digits
}
