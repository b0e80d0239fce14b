package mem

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"fiat128/word"
)

// fakeCache is a minimal CacheFile for routing tests.
type fakeCache struct {
	words [8]word.Word
}

func (f *fakeCache) CacheRead(index int) word.Word {
	return f.words[index]
}

func (f *fakeCache) CacheWrite(index int, w word.Word) {
	f.words[index] = w
}

func newTestBus() (*Bus, []*Memory, []*fakeCache) {
	mods := []*Memory{NewMemory(32), NewMemory(32)}
	caches := []*fakeCache{{}, {}}
	b := NewBus(mods, []CacheFile{caches[0], caches[1]})
	return b, mods, caches
}

func TestBusMemoryRouting(t *testing.T) {
	b, mods, _ := newTestBus()
	assert.Equal(t, 2, b.Channels())
	assert.Equal(t, 2, b.CoreCount())

	w := word.FromUint64(99)
	b.Write(true, 1, 1, 3, w)
	assert.Equal(t, w, mods[1].Read(3))
	assert.True(t, mods[0].Read(3).IsZero())
	assert.Equal(t, w, b.Read(true, 1, 1, 3))

	// any requester may use the memory path
	b.WriteInstruction(true, 1, 0, 0, 0x06, 0x01, 0x00, 0x00)
	assert.Equal(t, uint32(0x06010000), b.Read(true, 0, 0, 0).High32())

	assert.Panics(t, func() { b.Read(true, 0, 2, 0) })
	assert.Panics(t, func() { b.Write(true, 0, -1, 0, w) })
}

func TestBusCacheRouting(t *testing.T) {
	b, _, caches := newTestBus()

	// requester 0 reaches another core's cache
	w := word.FromUint64(7)
	b.Write(false, 0, 1, 2, w)
	assert.Equal(t, w, caches[1].words[2])
	assert.Equal(t, w, b.Read(false, 0, 1, 2))

	// any other requester reads zero and its writes are dropped
	b.Write(false, 1, 0, 2, w)
	assert.True(t, caches[0].words[2].IsZero())
	assert.True(t, b.Read(false, 1, 1, 2).IsZero())

	assert.Panics(t, func() { b.Read(false, 0, 5, 0) })
}

func TestBusParallelModules(t *testing.T) {
	// different modules never contend; same-module traffic serializes
	b, mods, _ := newTestBus()
	var wg sync.WaitGroup
	for ch := 0; ch < 2; ch++ {
		ch := ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 32; i++ {
				b.Write(true, ch, ch, i, word.FromUint64(uint64(ch+1)))
			}
		}()
	}
	wg.Wait()
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < 32; i++ {
			assert.Equal(t, uint64(ch+1), mods[ch].Read(i).Uint64())
		}
	}
}

func TestBusParallelCacheWrites(t *testing.T) {
	b, _, caches := newTestBus()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				b.Write(false, 0, 1, i, word.FromUint64(uint64(i)))
			}
		}()
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		assert.Equal(t, uint64(i), caches[1].words[i].Uint64())
	}
}
