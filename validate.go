package gtsl

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrMultipleWriters is returned when more than one edge targets the same input handle.
var ErrMultipleWriters = errors.New("input handle has multiple writers")

// Validate checks the structural invariants of the graph and returns every
// violation found combined into a single error:
//   - node and edge ids are unique and non-empty.
//   - edges reference existing nodes.
//   - at most one edge targets an input handle.
//   - parents are group nodes.
//   - edge handles exist on nodes with static handle tables.
func (g Graph) Validate() error {
	var err error
	nodes := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			err = multierr.Append(err, errors.New("node with empty id"))
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate node id %q", n.ID))
			continue
		}
		nodes[n.ID] = n
	}
	for _, n := range g.Nodes {
		if n.ParentID == "" {
			continue
		}
		p, ok := nodes[n.ParentID]
		switch {
		case !ok:
			err = multierr.Append(err, fmt.Errorf("node %q has missing parent %q", n.ID, n.ParentID))
		case p.Kind != KindGroup:
			err = multierr.Append(err, fmt.Errorf("node %q parent %q is %s, not a group", n.ID, n.ParentID, p.TypeName()))
		}
	}
	edgeIDs := make(map[string]struct{}, len(g.Edges))
	writers := make(map[[2]string]string, len(g.Edges))
	for _, e := range g.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate edge id %q", e.ID))
		}
		edgeIDs[e.ID] = struct{}{}
		src, srcOK := nodes[e.Source]
		tgt, tgtOK := nodes[e.Target]
		if !srcOK {
			err = multierr.Append(err, fmt.Errorf("edge %q: unknown source node %q", e.ID, e.Source))
		}
		if !tgtOK {
			err = multierr.Append(err, fmt.Errorf("edge %q: unknown target node %q", e.ID, e.Target))
		}
		key := [2]string{e.Target, e.TargetHandle}
		if prev, ok := writers[key]; ok {
			err = multierr.Append(err, fmt.Errorf("edge %q and %q write %s.%s: %w", prev, e.ID, e.Target, e.TargetHandle, ErrMultipleWriters))
		} else {
			writers[key] = e.ID
		}
		if srcOK && hasStaticHandles(src) && e.SourceHandle != "" {
			if !hasOutput(src, e.SourceHandle) {
				err = multierr.Append(err, fmt.Errorf("edge %q: %s node %q has no output %q", e.ID, src.TypeName(), src.ID, e.SourceHandle))
			}
		}
		if tgtOK && hasStaticHandles(tgt) && e.TargetHandle != "" {
			if _, ok := tgt.InputPort(e.TargetHandle); !ok {
				err = multierr.Append(err, fmt.Errorf("edge %q: %s node %q has no input %q", e.ID, tgt.TypeName(), tgt.ID, e.TargetHandle))
			}
		}
	}
	return err
}

// hasStaticHandles reports whether the handles of n are fully described by its kind.
func hasStaticHandles(n Node) bool {
	switch n.Kind {
	case KindUnknown, KindGroup, KindCustomFn, KindOutput:
		return false
	}
	return true
}

// hasOutput accepts the declared outputs of a node plus the component
// handles listed in the handle type table.
func hasOutput(n Node, handle string) bool {
	if _, ok := findPort(n.Outputs(), handle); ok || handle == "out" {
		return true
	}
	_, ok := handleTypes[n.TypeName()+":"+handle]
	return ok
}
