package ordernum

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	g := NewGenerator("GRO")

	n := g.Next()
	assert.True(t, Valid(n), "generated number %q should match the expected shape", n)
	assert.True(t, strings.HasPrefix(n, "GRO-"))
}

func TestNextUsesDefaultPrefix(t *testing.T) {
	g := NewGenerator("")
	assert.True(t, strings.HasPrefix(g.Next(), DefaultPrefix+"-"))
}

func TestNextEmbedsTimestamp(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewGenerator("GRO")
	g.now = func() time.Time { return fixed }

	n := g.Next()
	require.True(t, strings.HasPrefix(n, fmt.Sprintf("GRO-%d-", fixed.UnixMilli())))
}

func TestNextSuffixRange(t *testing.T) {
	g := NewGenerator("GRO")

	for i := 0; i < 10000; i++ {
		n := g.Next()
		require.True(t, Valid(n), "draw %d produced %q", i, n)
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"GRO",
		"GRO-1700000000000",
		"GRO-1700000000000-1",     // suffix must be three digits
		"gro-1700000000000-123",   // lower-case prefix
		"GRO-1700000000000-123-4", // trailing garbage
	} {
		assert.False(t, Valid(bad), "expected %q to be rejected", bad)
	}
}
