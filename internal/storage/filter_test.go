package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosureFilter(t *testing.T) {
	f := NewClosureFilter(func(id uint64) bool { return id%2 == 0 })
	assert.True(t, f.IsFiltered(4))
	assert.False(t, f.IsFiltered(5))
}

func TestBitmapFilterSetClear(t *testing.T) {
	f := NewBitmapFilter(10)
	assert.False(t, f.IsFiltered(3))

	f.Set(3)
	assert.True(t, f.IsFiltered(3))

	f.Clear(3)
	assert.False(t, f.IsFiltered(3))
}

func TestBitmapFilterOutOfRangeNeverFiltered(t *testing.T) {
	f := NewBitmapFilter(4)
	f.Set(100) // no-op, out of range
	assert.False(t, f.IsFiltered(100))
}

func TestBitmapFilterSpansMultipleWords(t *testing.T) {
	f := NewBitmapFilter(200)
	f.Set(130)
	assert.True(t, f.IsFiltered(130))
	assert.False(t, f.IsFiltered(129))
	assert.False(t, f.IsFiltered(131))
}
