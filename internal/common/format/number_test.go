package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrouped(t *testing.T) {
	assert.Equal(t, "1,234,567", Grouped(1234567, 0))
	assert.Equal(t, "1,234.6", Grouped(1234.56, 1))
	assert.Equal(t, "12", Grouped(12.4, 0))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "1.2M", Compact(1_234_567))
	assert.Equal(t, "45.3K", Compact(45_300))
	assert.Equal(t, "999", Compact(999))
}

func TestValue(t *testing.T) {
	assert.Equal(t, "-", Value(nil))
	assert.Equal(t, "1,000", Value(1000.0))
	assert.Equal(t, "4.25", Value(4.25))
	assert.Equal(t, "Music", Value("Music"))
}
