package machine

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"fiat128/cpu"
)

// wordsPerRow keeps a cache row within a terminal line; only the low 64
// bits of each word are rendered.
const wordsPerRow = 4

type model struct {
	m    *Machine
	core int // core being inspected

	prevSP uint32
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (m model) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ", "j":
			// one full instruction on every core
			m.prevSP = m.m.Core(m.core).SP
			m.m.Step(false)

		case "s":
			// a single micro-step
			m.prevSP = m.m.Core(m.core).SP
			m.m.Step(true)

		case "tab":
			m.core = (m.core + 1) % m.m.Cores()
		}
	}
	return m, nil
}

// renderRow renders one cache row. The word at the current sp is
// highlighted.
func (m model) renderRow(start int) string {
	c := m.m.Core(m.core)
	if start%wordsPerRow != 0 {
		panic("start must be a multiple of the row width")
	}
	s := fmt.Sprintf("%04x | ", start)
	for i := start; i < start+wordsPerRow; i++ {
		w := c.Cache[i]
		if uint32(i) == c.SP {
			s += fmt.Sprintf("[%016x] ", w.Uint64())
		} else {
			s += fmt.Sprintf(" %016x  ", w.Uint64())
		}
	}
	return s
}

func (m model) status() string {
	c := m.m.Core(m.core)

	var flags string
	for _, flag := range []cpu.Flags{
		cpu.FlagHalt,
		cpu.FlagSign,
		cpu.FlagZero,
		cpu.FlagOverflow,
		cpu.FlagInterrupt,
	} {
		if c.Flags.Has(flag) {
			flags += "/ "
		} else {
			flags += "  "
		}
	}

	regs := ""
	for i, r := range c.Regs {
		regs += fmt.Sprintf("R%d: %016x\n", i, r.Uint64())
	}

	return fmt.Sprintf(`core %d (of %d)

SP: %x (%x)
IV: %x
 T: %016x
AC: %08x
cycles: %d retired: %d

%s
H S Z O I
`,
		c.ID, m.m.Cores(),
		c.SP, m.prevSP,
		c.IntVector,
		c.Timer.Uint64(),
		c.Acc,
		c.TotalCycles, c.Retired,
		regs,
	) + flags
}

// cacheTable renders the rows around the sp plus the top of the cache,
// where execution starts after bootstrap.
func (m model) cacheTable() string {
	c := m.m.Core(m.core)

	header := "addr | "
	for i := 0; i < wordsPerRow; i++ {
		header += fmt.Sprintf("       %01x          ", i)
	}

	rows := []string{header}
	top := len(c.Cache) - 2*wordsPerRow
	spRow := int(c.SP) &^ (wordsPerRow - 1)
	seen := map[int]bool{}
	for _, start := range []int{
		0, wordsPerRow,
		spRow - wordsPerRow, spRow, spRow + wordsPerRow,
		top, top + wordsPerRow,
	} {
		if start < 0 || start+wordsPerRow > len(c.Cache) || seen[start] {
			continue
		}
		seen[start] = true
		rows = append(rows, m.renderRow(start))
	}
	return strings.Join(rows, "\n")
}

// View renders the debugger UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	c := m.m.Core(m.core)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.cacheTable(),
			"   ",
			m.status(),
		),
		"",
		spew.Sdump(c.Current),
		"space/j step, s micro-step, tab core, q quit",
	)
}

// Debug starts an interactive TUI over the machine: step with space, watch
// the selected core's cache, registers, and current instruction.
func (m *Machine) Debug() error {
	_, err := tea.NewProgram(model{m: m}).Run()
	return err
}
