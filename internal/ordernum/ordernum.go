// Package ordernum generates human-readable order identifiers.
//
// An order number is a fixed prefix, the creation time in unix
// milliseconds, and a three-digit random suffix, e.g. GRO-1721995200123-042.
// Uniqueness is probabilistic (same millisecond and same draw); the orders
// table carries a unique constraint and callers regenerate on conflict.
package ordernum

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"
)

const DefaultPrefix = "GRO"

var pattern = regexp.MustCompile(`^[A-Z0-9]+-\d{13}-\d{3}$`)

// Generator produces order numbers with a configurable prefix.
type Generator struct {
	prefix string
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
}

// NewGenerator creates a generator. An empty prefix falls back to DefaultPrefix.
func NewGenerator(prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{
		prefix: prefix,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Next returns a new order number.
func (g *Generator) Next() string {
	g.mu.Lock()
	suffix := g.rng.Intn(1000)
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d-%03d", g.prefix, g.now().UnixMilli(), suffix)
}

// Valid reports whether s has the PREFIX-millis-suffix shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
