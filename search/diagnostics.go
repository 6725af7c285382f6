package search

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Diagnostics are counters a searcher updates while running. They are safe
// to read from another goroutine.
type Diagnostics struct {
	Pruned           atomic.Uint64
	BranchingFactor  atomic.Uint64
	BranchesSearched atomic.Uint64
	DepthCompleted   atomic.Uint64
	Nodes            atomic.Uint64
	Simulations      atomic.Uint64
}

// Reset zeroes every counter.
func (d *Diagnostics) Reset() {
	d.Pruned.Store(0)
	d.BranchingFactor.Store(0)
	d.BranchesSearched.Store(0)
	d.DepthCompleted.Store(0)
	d.Nodes.Store(0)
	d.Simulations.Store(0)
}

// Snapshot is a point-in-time copy of Diagnostics.
type Snapshot struct {
	Pruned           uint64 `json:"pruned" yaml:"pruned"`
	BranchingFactor  uint64 `json:"branching_factor" yaml:"branching_factor"`
	BranchesSearched uint64 `json:"branches_searched" yaml:"branches_searched"`
	DepthCompleted   uint64 `json:"depth_completed" yaml:"depth_completed"`
	Nodes            uint64 `json:"nodes" yaml:"nodes"`
	Simulations      uint64 `json:"simulations" yaml:"simulations"`
}

func (d *Diagnostics) Snapshot() Snapshot {
	return Snapshot{
		Pruned:           d.Pruned.Load(),
		BranchingFactor:  d.BranchingFactor.Load(),
		BranchesSearched: d.BranchesSearched.Load(),
		DepthCompleted:   d.DepthCompleted.Load(),
		Nodes:            d.Nodes.Load(),
		Simulations:      d.Simulations.Load(),
	}
}

// MarshalZerologObject lets a snapshot be logged with Object or Dict.
func (s Snapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("pruned", s.Pruned).
		Uint64("branching-factor", s.BranchingFactor).
		Uint64("branches-searched", s.BranchesSearched).
		Uint64("depth-completed", s.DepthCompleted).
		Uint64("nodes", s.Nodes).
		Uint64("simulations", s.Simulations)
}
