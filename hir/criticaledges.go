// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

// splitCriticalEdges inserts an empty block on every edge whose source has
// more than one successor and whose destination has more than one
// predecessor (a "critical edge"). Phi resolution (see resolvePhis and
// sequentialize in lirgen.go) needs one place per edge to put that edge's moves; without
// splitting, a branch with two successors that both target phi-bearing
// blocks would have nowhere to put edge-specific moves before its single
// shared terminator.
//
// This has no direct analogue in wagon (whose block rewriter only ever
// produces single-successor fallthroughs or structured if/else with no
// shared phi state), but is the standard companion to any SSA-form
// generator that resolves phis via predecessor-side moves — the same
// problem compile.Compile's patchTable sidesteps entirely by not having
// phis.
func splitCriticalEdges(ir *IR) {
	for _, id := range ir.Blocks() {
		blk := ir.Block(id)
		if !blk.IsLive() || len(blk.Successors) <= 1 {
			continue
		}
		for i := range blk.Successors {
			succID := blk.Successors[i]
			succ := ir.Block(succID)
			if succ == nil || len(succ.Predecessors) <= 1 {
				continue
			}

			edge := ir.NewBlock()
			edge.StateBefore = NewFrameState(0, 0, nil)
			edge.BCI = blk.BCI
			edge.End = BlockEnd{Kind: EndGoto, Successors: []NodeID{succID}}
			edge.Successors = []NodeID{succID}
			edge.Predecessors = []NodeID{id}

			blk.Successors[i] = edge.ID
			for k, s := range blk.End.Successors {
				if s == succID {
					blk.End.Successors[k] = edge.ID
					break
				}
			}
			if blk.End.Switch != nil {
				for k, s := range blk.End.Switch.Successors {
					if s == succID {
						blk.End.Switch.Successors[k] = edge.ID
						break
					}
				}
				if blk.End.Switch.Default == succID {
					blk.End.Switch.Default = edge.ID
				}
			}
			for k := range blk.End.ExceptionEdges {
				if blk.End.ExceptionEdges[k].HandlerBlock == succID {
					blk.End.ExceptionEdges[k].HandlerBlock = edge.ID
				}
			}
			for j, p := range succ.Predecessors {
				if p == id {
					succ.Predecessors[j] = edge.ID
					break
				}
			}
		}
	}
}
