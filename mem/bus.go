package mem

import (
	"fmt"
	"sync"

	"fiat128/word"
)

// A CacheFile is the bus-facing view of a core's private cache. The cpu
// package implements it; keeping it an interface here avoids a package
// cycle between the bus and the cores it reaches into.
type CacheFile interface {
	CacheRead(index int) word.Word
	CacheWrite(index int, w word.Word)
}

// The Bus is the central connector between the cores and the memory
// modules. Every memory access a core makes goes through here, as does the
// bootstrap core's traffic into worker caches.
//
//	CORE0   CORE1 ... COREn
//	  |       |         |
//	  +-------+----+----+
//	               |
//	              BUS
//	               |
//	  +-------+----+----+
//	  |       |         |
//	 MEM0   MEM1 ...  MEMm
//
// The Bus does not own its endpoints; the machine allocates modules and
// cores and hands the Bus plain references.
type Bus struct {
	modules []*Memory
	cores   []CacheFile

	// cpuMu serializes cross-core cache writes. Reads are deliberately
	// unsynchronized; the requester is responsible for quiescence.
	cpuMu sync.Mutex

	// Per-endpoint arbitration state, reserved for a future revision.
	inState  []bool
	outState []bool
}

// NewBus connects the given modules and cores.
func NewBus(modules []*Memory, cores []CacheFile) *Bus {
	return &Bus{
		modules:  modules,
		cores:    cores,
		inState:  make([]bool, len(modules)+len(cores)),
		outState: make([]bool, len(modules)+len(cores)),
	}
}

// Channels returns the number of connected memory modules.
func (b *Bus) Channels() int {
	return len(b.modules)
}

// CoreCount returns the number of connected cores.
func (b *Bus) CoreCount() int {
	return len(b.cores)
}

func (b *Bus) module(channel int) *Memory {
	if channel < 0 || channel >= len(b.modules) {
		panic(fmt.Sprintf("bus: memory channel %d out of range [0,%d)", channel, len(b.modules)))
	}
	return b.modules[channel]
}

func (b *Bus) core(channel int) CacheFile {
	if channel < 0 || channel >= len(b.cores) {
		panic(fmt.Sprintf("bus: core channel %d out of range [0,%d)", channel, len(b.cores)))
	}
	return b.cores[channel]
}

// Read routes a read request. With memOp set, channel names a memory module
// and the access is delegated to it. With memOp clear, channel names a core
// whose cache is read directly; only requester 0 is granted that path, any
// other requester reads zero.
func (b *Bus) Read(memOp bool, requester, channel, index int) word.Word {
	if memOp {
		return b.module(channel).Read(index)
	}
	if requester != 0 {
		return word.Word{}
	}
	return b.core(channel).CacheRead(index)
}

// Write routes a write request, with the same addressing as Read. Writes
// into another core's cache take the bus-wide mutex; cache writes from
// requesters other than 0 are dropped.
func (b *Bus) Write(memOp bool, requester, channel, index int, w word.Word) {
	if memOp {
		b.module(channel).Write(index, w)
		return
	}
	if requester != 0 {
		return
	}
	b.cpuMu.Lock()
	defer b.cpuMu.Unlock()
	b.core(channel).CacheWrite(index, w)
}

// WriteInstruction packs the 4 instruction bytes and routes them like Write.
func (b *Bus) WriteInstruction(memOp bool, requester, channel, index int, op, dest, src1, src2 byte) {
	b.Write(memOp, requester, channel, index, word.FromInstruction(op, dest, src1, src2))
}
