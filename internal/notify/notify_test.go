package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailTruncateShortInputUntouched(t *testing.T) {
	assert.Equal(t, "short", TailTruncate("short", 900))
	assert.Equal(t, "", TailTruncate("", 900))
}

func TestTailTruncateKeepsTail(t *testing.T) {
	long := strings.Repeat("x", 500) + "\nfinal line of output"
	got := TailTruncate(long, 40)

	assert.True(t, strings.HasPrefix(got, TruncationMarker))
	assert.True(t, strings.HasSuffix(got, "final line of output"))
}

func TestTailTruncateBoundsLength(t *testing.T) {
	long := strings.Repeat("a", 5000)
	got := TailTruncate(long, 900)
	assert.LessOrEqual(t, len(got), 900+len(TruncationMarker))
}

func TestTailTruncateStartsOnLineBoundary(t *testing.T) {
	long := strings.Repeat("padding padding\n", 100)
	got := TailTruncate(long, 100)

	body := strings.TrimPrefix(got, TruncationMarker)
	assert.True(t, strings.HasPrefix(body, "padding padding\n"),
		"truncated body should not start mid-line, got %q", body[:20])
}

func TestTailTruncateZeroLimitDisables(t *testing.T) {
	long := strings.Repeat("a", 5000)
	assert.Equal(t, long, TailTruncate(long, 0))
}
