// Package mem provides the banked memory modules of the machine and the Bus
// that connects them to the cores.

package mem

import (
	"fmt"
	"sync"

	"fiat128/word"
)

// A Memory is one bank of Words. Each module carries its own mutex, so
// concurrent traffic against different modules never contends; traffic
// against the same module is serialized here.
type Memory struct {
	mu    sync.Mutex
	cells []word.Word
}

// NewMemory returns a zeroed module of the given size in Words.
func NewMemory(size int) *Memory {
	if size <= 0 {
		panic(fmt.Sprintf("memory size %d must be positive", size))
	}
	return &Memory{cells: make([]word.Word, size)}
}

// Size returns the module's length in Words.
func (m *Memory) Size() int {
	return len(m.cells)
}

func (m *Memory) checkIndex(index int) {
	if index < 0 || index >= len(m.cells) {
		panic(fmt.Sprintf("memory index %d out of range [0,%d)", index, len(m.cells)))
	}
}

// Read returns the Word at index.
func (m *Memory) Read(index int) word.Word {
	m.checkIndex(index)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[index]
}

// Write stores w at index.
func (m *Memory) Write(index int, w word.Word) {
	m.checkIndex(index)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells[index] = w
}

// WriteInstruction packs the 4 instruction bytes into the top of a Word and
// stores it at index.
func (m *Memory) WriteInstruction(index int, op, dest, src1, src2 byte) {
	m.Write(index, word.FromInstruction(op, dest, src1, src2))
}
