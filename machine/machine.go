// Package machine assembles cores, memory modules, and the bus into a
// steppable FIAT128 machine, and exposes the seeding API the host drives
// it through.

package machine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"fiat128/cpu"
	"fiat128/mem"
	"fiat128/word"
)

const (
	// DefaultCacheSize is the per-core cache length in Words.
	DefaultCacheSize = 2048

	// DebugCacheSize is the tiny cache used when stepping a machine by
	// hand; a full bootstrap then takes 8 calls instead of 2048.
	DebugCacheSize = 8
)

// Config describes a machine to build. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Cores      int // execution units; core 0 is the bootstrap core
	Modules    int // independent memory banks
	ModuleSize int // words per bank
	CacheSize  int // words per core cache, a power of two

	// WakeOnBootstrap releases each worker (clears its halt flag) once
	// INT has filled its cache. Off by default: the hardware model the
	// emulator follows copies the caches but leaves workers halted.
	WakeOnBootstrap bool
}

// DefaultConfig returns a two-core machine with one 64Ki-word memory bank.
func DefaultConfig() Config {
	return Config{
		Cores:      2,
		Modules:    1,
		ModuleSize: 1 << 16,
		CacheSize:  DefaultCacheSize,
	}
}

// A Machine owns its cores, memory modules, and the bus between them.
// Ownership lives here and nowhere else: the bus and the cores only hold
// plain references to each other.
type Machine struct {
	cfg   Config
	cores []*cpu.Core
	mods  []*mem.Memory
	bus   *mem.Bus
}

// New builds the machine: modules first, then the cores (ids are assigned
// per machine, counting from 0), then the bus over both, and finally the
// bus reference is injected into every core.
func New(cfg Config) *Machine {
	if cfg.Cores < 1 {
		panic(fmt.Sprintf("machine needs at least one core, got %d", cfg.Cores))
	}
	if cfg.Modules < 1 {
		panic(fmt.Sprintf("machine needs at least one memory module, got %d", cfg.Modules))
	}

	m := &Machine{cfg: cfg}

	m.mods = make([]*mem.Memory, cfg.Modules)
	for i := range m.mods {
		m.mods[i] = mem.NewMemory(cfg.ModuleSize)
	}

	m.cores = make([]*cpu.Core, cfg.Cores)
	endpoints := make([]mem.CacheFile, cfg.Cores)
	for i := range m.cores {
		m.cores[i] = cpu.NewCore(i, cfg.CacheSize)
		endpoints[i] = m.cores[i]
	}

	m.bus = mem.NewBus(m.mods, endpoints)
	for _, c := range m.cores {
		c.AttachBus(m.bus)
	}
	if cfg.WakeOnBootstrap {
		m.cores[0].SetWake(func(core int) {
			m.cores[core].Flags.Clear(cpu.FlagHalt)
		})
	}

	return m
}

// Cores returns the number of cores.
func (m *Machine) Cores() int {
	return len(m.cores)
}

// Core returns core i for inspection or external resets.
func (m *Machine) Core(i int) *cpu.Core {
	if i < 0 || i >= len(m.cores) {
		panic(fmt.Sprintf("machine: core %d out of range [0,%d)", i, len(m.cores)))
	}
	return m.cores[i]
}

// Memory returns memory module i.
func (m *Machine) Memory(i int) *mem.Memory {
	if i < 0 || i >= len(m.mods) {
		panic(fmt.Sprintf("machine: memory channel %d out of range [0,%d)", i, len(m.mods)))
	}
	return m.mods[i]
}

// Bus returns the machine's bus.
func (m *Machine) Bus() *mem.Bus {
	return m.bus
}

// SetWordInMemory seeds one word of a memory bank.
func (m *Machine) SetWordInMemory(channel, index int, w word.Word) {
	m.Memory(channel).Write(index, w)
}

// SetInstructionInMemory seeds one packed instruction into a memory bank.
func (m *Machine) SetInstructionInMemory(channel, index int, op cpu.Op, dest, src1, src2 byte) {
	m.Memory(channel).WriteInstruction(index, byte(op), dest, src1, src2)
}

// SetWordInCore pokes one word directly into a core's cache. This is the
// host seeding path; it does not go through the bus and so is not subject
// to the bus permission model.
func (m *Machine) SetWordInCore(core, index int, w word.Word) {
	m.Core(core).CacheWrite(index, w)
}

// SetInstructionInCore pokes one packed instruction into a core's cache.
func (m *Machine) SetInstructionInCore(core, index int, op cpu.Op, dest, src1, src2 byte) {
	m.Core(core).CacheWrite(index, word.FromInstruction(byte(op), dest, src1, src2))
}

// Step advances every core by one micro-step (stepMode true) or one full
// instruction (stepMode false), in core order on the calling goroutine.
// Deterministic, and the mode to use in tests.
func (m *Machine) Step(stepMode bool) {
	for _, c := range m.cores {
		c.Step(stepMode)
	}
}

// StepAll advances every core concurrently, one goroutine per core, and
// returns once all of them have finished the step. Cross-core traffic is
// safe: module access and cache writes are serialized by the bus and the
// modules themselves.
func (m *Machine) StepAll(stepMode bool) error {
	var g errgroup.Group
	for _, c := range m.cores {
		c := c
		g.Go(func() error {
			c.Step(stepMode)
			return nil
		})
	}
	return g.Wait()
}
