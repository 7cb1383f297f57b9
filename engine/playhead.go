package engine

// ConditionPasses evaluates an m:n loop condition: true on iteration m
// (1-based) of every n, inverted when not is set. n <= 0 always passes.
func ConditionPasses(n, m int, not bool, iteration int) bool {
	if n <= 0 {
		return true
	}
	if iteration < 0 {
		iteration = 0
	}
	match := iteration%n+1 == m
	if not {
		return !match
	}
	return match
}

// TransposeEntry is one compacted transpose step as the engine holds it
type TransposeEntry struct {
	Transpose int
	Duration  int // engine steps
	Jump      int // engine index, -1 for none
	CondN     int
	CondM     int
	CondNot   bool
}

// Playhead follows the transpose lane in engine steps, taking jumps when
// their condition passes. Each entry counts how often its jump was evaluated.
type Playhead struct {
	entries   []TransposeEntry
	total     int
	iter      []int
	index     int
	entryStep int
	started   bool
}

// Load replaces the entries and restarts the playhead
func (p *Playhead) Load(entries []TransposeEntry) {
	p.entries = append(p.entries[:0], entries...)
	p.total = 0
	for _, e := range p.entries {
		p.total += e.Duration
	}
	p.Reset()
}

// Reset restarts from the position of the next update, clearing iteration counts
func (p *Playhead) Reset() {
	p.iter = make([]int, len(p.entries))
	p.index = 0
	p.entryStep = 0
	p.started = false
}

// Len returns the number of entries
func (p *Playhead) Len() int {
	return len(p.entries)
}

// TotalSteps returns the summed duration in engine steps
func (p *Playhead) TotalSteps() int {
	return p.total
}

// Index returns the current entry, -1 for an empty lane
func (p *Playhead) Index() int {
	if len(p.entries) == 0 || p.total == 0 {
		return -1
	}
	return p.index
}

// Transpose returns the current entry's transpose, 0 for an empty lane
func (p *Playhead) Transpose() int {
	if i := p.Index(); i >= 0 {
		return p.entries[i].Transpose
	}
	return 0
}

// Update moves the playhead to global engine step. The first update places
// it by position within the loop; later updates advance entry by entry.
func (p *Playhead) Update(step int) {
	if len(p.entries) == 0 || p.total == 0 {
		return
	}

	if !p.started {
		looped := step % p.total
		acc := 0
		for i, e := range p.entries {
			if looped < acc+e.Duration {
				p.index = i
				p.entryStep = step - (looped - acc)
				break
			}
			acc += e.Duration
		}
		p.started = true
		return
	}

	cur := p.entries[p.index]
	if step-p.entryStep < cur.Duration {
		return
	}

	if cur.Jump >= 0 && cur.Jump < len(p.entries) {
		pass := ConditionPasses(cur.CondN, cur.CondM, cur.CondNot, p.iter[p.index])
		p.iter[p.index]++
		if pass {
			p.index = cur.Jump
			p.entryStep = step
			return
		}
	}

	p.index = (p.index + 1) % len(p.entries)
	p.entryStep = step
}
