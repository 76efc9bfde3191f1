package tir

import (
	"fmt"

	"github.com/mastercyb/trident/internal/target"
)

// stackEntry is one named or temporary value in the simulated operand
// stack. A spilled entry occupies no stack cells; its cells live at a
// stable RAM address until the next access reloads them.
type stackEntry struct {
	name      string // "" for temporaries
	width     int
	spilled   bool
	spillAddr uint64 // reserved on first spill, stable for the function
	lastUse   uint64
}

// Manager is the LRU variable manager of spec.md §4.4: a fixed window of
// directly addressable cells, with automatic spill to RAM when a push
// would overflow and reload on next access. It is the only way the
// builder mutates simulated stack state; every spill and reload is a
// consequence of a capacity check, never explicit.
type Manager struct {
	window    int
	entries   []stackEntry // bottom first, top last
	clock     uint64
	nextSpill uint64
}

// NewManager creates a Manager for one function against a target window.
func NewManager(tc target.TargetConfig) *Manager {
	return &Manager{window: tc.StackDepth, nextSpill: tc.SpillRAMBase}
}

func (m *Manager) tick() uint64 {
	m.clock++
	return m.clock
}

// Depth returns the number of resident cells.
func (m *Manager) Depth() int {
	total := 0
	for _, e := range m.entries {
		if !e.spilled {
			total += e.width
		}
	}
	return total
}

// PushNamed records a named entry on top of the model. The caller must
// have emitted the cells (and called EnsureSpace for them) already.
func (m *Manager) PushNamed(name string, width int) {
	m.entries = append(m.entries, stackEntry{name: name, width: width, lastUse: m.tick()})
}

// PushTemp records an anonymous entry on top of the model.
func (m *Manager) PushTemp(width int) {
	m.entries = append(m.entries, stackEntry{width: width, lastUse: m.tick()})
}

// DropTop removes the top n entries from the model without emitting pops
// — used when an already-emitted instruction consumed them.
func (m *Manager) DropTop(n int) {
	for i := 0; i < n && len(m.entries) > 0; i++ {
		m.entries = m.entries[:len(m.entries)-1]
	}
}

// MergeTop fuses the top k entries into one anonymous aggregate entry,
// used when struct/array/tuple components become one contiguous value.
func (m *Manager) MergeTop(k int) {
	if k <= 0 || k > len(m.entries) {
		return
	}
	width := 0
	for i := len(m.entries) - k; i < len(m.entries); i++ {
		width += m.entries[i].width
	}
	m.entries = m.entries[:len(m.entries)-k]
	m.entries = append(m.entries, stackEntry{width: width, lastUse: m.tick()})
}

// Pop discards the top n entries (temporaries and names alike). Spilled
// entries at the top are discarded without stack effect.
func (m *Manager) Pop(n int) []Op {
	var ops []Op
	for i := 0; i < n && len(m.entries) > 0; i++ {
		top := m.entries[len(m.entries)-1]
		m.entries = m.entries[:len(m.entries)-1]
		if !top.spilled && top.width > 0 {
			ops = append(ops, Pop{N: top.width})
		}
	}
	return ops
}

// NameTop converts the top entry (typically a just-lowered initializer
// temporary) into a named variable.
func (m *Manager) NameTop(name string) {
	if len(m.entries) == 0 {
		return
	}
	m.entries[len(m.entries)-1].name = name
	m.entries[len(m.entries)-1].lastUse = m.tick()
}

// SplitTopTuple replaces the top entry by one named entry per component,
// bottom-first, for tuple-destructuring lets. Widths must sum to the top
// entry's width.
func (m *Manager) SplitTopTuple(names []string, widths []int) {
	if len(m.entries) == 0 {
		return
	}
	m.entries = m.entries[:len(m.entries)-1]
	for i, name := range names {
		m.entries = append(m.entries, stackEntry{name: name, width: widths[i], lastUse: m.tick()})
	}
}

// TopWidth returns the width of the top entry.
func (m *Manager) TopWidth() int {
	if len(m.entries) == 0 {
		return 0
	}
	return m.entries[len(m.entries)-1].width
}

// EntryCount returns the number of entries (resident or spilled).
func (m *Manager) EntryCount() int { return len(m.entries) }

// FindVarDepth returns the distance (in cells) from the top of stack to
// the top cell of the named resident variable.
func (m *Manager) FindVarDepth(name string) (int, bool) {
	depth := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.spilled {
			continue
		}
		if e.name == name {
			return depth, true
		}
		depth += e.width
	}
	return 0, false
}

// VarWidth returns the width of the named variable, resident or spilled.
func (m *Manager) VarWidth(name string) (int, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].name == name {
			return m.entries[i].width, true
		}
	}
	return 0, false
}

// AccessVar ensures name is resident, emitting a reload sequence if it
// was spilled, and refreshes its LRU stamp.
func (m *Manager) AccessVar(name string) ([]Op, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].name != name {
			continue
		}
		e := m.entries[i]
		e.lastUse = m.tick()
		if !e.spilled {
			m.entries[i] = e
			return nil, true
		}

		// Reload: read the stored cells back, bottom cell first so the
		// entry's top cell ends on top, and move the entry to the top of
		// the model (it now physically lives there).
		ops := []Op{Comment{Text: fmt.Sprintf("reload %s", name)}}
		ops = append(ops, m.EnsureSpace(e.width)...)
		for c := e.width - 1; c >= 0; c-- {
			ops = append(ops, Push{Value: e.spillAddr + uint64(c)}, ReadMem{N: 1})
		}
		e.spilled = false
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		m.entries = append(m.entries, e)
		return ops, true
	}
	return nil, false
}

// AssignVar stores the top temporary into the named variable: swap-down
// and pop the old cells when the variable is resident, a direct RAM write
// to its spill region when it is not. The temporary is consumed.
func (m *Manager) AssignVar(name string) ([]Op, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].name != name {
			continue
		}
		e := m.entries[i]
		w := e.width
		if e.spilled {
			if e.spillAddr == 0 {
				e.spillAddr = m.nextSpill
				m.nextSpill += uint64(w)
				m.entries[i] = e
			}
			ops := []Op{Push{Value: e.spillAddr}, WriteMem{N: w}}
			m.DropTop(1)
			return ops, true
		}
		d, _ := m.FindVarDepth(name)
		var ops []Op
		for c := 0; c < w; c++ {
			ops = append(ops, Swap{Depth: d + w - 1}, Pop{N: 1})
		}
		m.entries[i].lastUse = m.tick()
		m.DropTop(1)
		return ops, true
	}
	return nil, false
}

// EnsureSpace guarantees k additional cells of headroom, spilling the
// least-recently-used resident named variables in age order until the
// window can absorb the push (spec.md §4.4). The spill happens before the
// overflow: after EnsureSpace returns, Depth()+k <= window whenever any
// named variable remained to spill.
func (m *Manager) EnsureSpace(k int) []Op {
	var ops []Op
	for m.Depth()+k > m.window {
		idx := m.lruVictim()
		if idx < 0 {
			break
		}
		ops = append(ops, m.spill(idx)...)
	}
	return ops
}

// lruVictim picks the oldest resident named entry; temporaries are never
// spilled (they are operands of the instruction about to run).
func (m *Manager) lruVictim() int {
	best := -1
	for i, e := range m.entries {
		if e.spilled || e.name == "" || e.width == 0 {
			continue
		}
		if best < 0 || e.lastUse < m.entries[best].lastUse {
			best = i
		}
	}
	return best
}

// spill writes the entry's cells to its reserved RAM region, top cell
// first, and replaces the model entry with a spilled marker. The address
// is reserved on first spill and reused for the function's lifetime.
func (m *Manager) spill(idx int) []Op {
	e := m.entries[idx]
	if e.spillAddr == 0 {
		e.spillAddr = m.nextSpill
		m.nextSpill += uint64(e.width)
	}

	depth, _ := m.FindVarDepth(e.name)
	ops := []Op{Comment{Text: fmt.Sprintf("spill %s", e.name)}}
	for c := 0; c < e.width; c++ {
		// Extract the entry's current top cell: bring it up, pair it with
		// its address, store. The entry's remaining cells arrive at the
		// same depth as each is consumed.
		ops = append(ops,
			Push{Value: e.spillAddr + uint64(c)},
			Swap{Depth: depth + 1},
			WriteMem{N: 1},
		)
	}
	e.spilled = true
	m.entries[idx] = e
	return ops
}

// Snapshot captures the model state for branch verification.
func (m *Manager) Snapshot() []stackEntry {
	out := make([]stackEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Restore resets the model to a previously captured snapshot.
func (m *Manager) Restore(snap []stackEntry) {
	m.entries = make([]stackEntry, len(snap))
	copy(m.entries, snap)
}

// SameShape reports whether two snapshots describe the same stack layout
// (names, widths, residency) — the invariant both arms of a branch must
// preserve.
func SameShape(a, b []stackEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name != b[i].name || a[i].width != b[i].width || a[i].spilled != b[i].spilled {
			return false
		}
	}
	return true
}
