package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagLayout(t *testing.T) {
	// the bit positions are part of the observable machine state
	assert.Equal(t, Flags(1<<0), FlagInterrupt)
	assert.Equal(t, Flags(1<<1), FlagOverflow)
	assert.Equal(t, Flags(1<<2), FlagZero)
	assert.Equal(t, Flags(1<<3), FlagSign)
	assert.Equal(t, Flags(1<<4), FlagHalt)
}

func TestFlagOps(t *testing.T) {
	var f Flags
	assert.False(t, f.Has(FlagZero))

	f.Set(FlagZero | FlagSign)
	assert.True(t, f.Has(FlagZero))
	assert.True(t, f.Has(FlagSign))
	assert.True(t, f.Has(FlagZero|FlagSign))
	assert.False(t, f.Has(FlagHalt))

	f.Clear(FlagZero)
	assert.False(t, f.Has(FlagZero))
	assert.True(t, f.Has(FlagSign))
}
