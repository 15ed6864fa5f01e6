package pointer

import "alkanes-core/core/model"

// BurnCycle tracks a per-rune round-robin counter modulo the number of
// declared protoburns (spec §4.9: "a per-rune counter modulo the number of
// burns"), grounded on `BurnCycle` in
// original_source/crates/protorune/src/protoburn.rs.
type BurnCycle struct {
	max    int
	cycles map[model.ProtoruneId]int
}

// NewBurnCycle returns a cycler over numBurns protoburn targets.
func NewBurnCycle(numBurns int) *BurnCycle {
	return &BurnCycle{max: numBurns, cycles: make(map[model.ProtoruneId]int)}
}

// Peek returns the burn index the next edict for id would receive without
// advancing the counter.
func (c *BurnCycle) Peek(id model.ProtoruneId) int {
	return c.cycles[id]
}

// Next returns the burn index for id and advances the counter modulo max.
func (c *BurnCycle) Next(id model.ProtoruneId) int {
	cur := c.cycles[id]
	if c.max > 0 {
		c.cycles[id] = (cur + 1) % c.max
	}
	return cur
}

// Assignment is the resolved protoburn target for one edict.
type Assignment struct {
	EdictIndex int
	BurnIndex  int
}

// AssignProtoburns resolves, for every edict targeting runestoneVout, which
// protoburn (by burn index) it is routed to (spec §4.9).
//
// from[i] lists the edict indices pre-assigned to burn i (spec: "Edicts
// with from = [j…] are pre-assigned"); pre-assigned edicts are excluded
// from the round-robin pass over the remaining edicts. numBurns is the
// modulus of that round-robin pass.
func AssignProtoburns(edicts []model.ProtostoneEdict, runestoneVout uint64, from [][]int, numBurns int) []Assignment {
	pulled := make(map[int]bool)
	var assignments []Assignment

	for burnIdx, indices := range from {
		for _, j := range indices {
			pulled[j] = true
			if j < 0 || j >= len(edicts) {
				continue
			}
			out, ok := edicts[j].Output.Uint64()
			if ok && out == runestoneVout {
				assignments = append(assignments, Assignment{EdictIndex: j, BurnIndex: burnIdx})
			}
		}
	}

	cycle := NewBurnCycle(numBurns)
	for i, e := range edicts {
		if pulled[i] {
			continue
		}
		out, ok := e.Output.Uint64()
		if !ok || out != runestoneVout {
			continue
		}
		burnIdx := cycle.Next(e.ID)
		assignments = append(assignments, Assignment{EdictIndex: i, BurnIndex: burnIdx})
	}

	return assignments
}
