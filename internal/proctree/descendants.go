package proctree

import "sort"

// DescendantSet is the result of a breadth-first walk down the parent links
// of a snapshot. Layers[0] holds direct children of the roots, Layers[1]
// their children, and so on.
type DescendantSet struct {
	Layers [][]int
	member map[int]struct{}
}

// Contains reports whether pid is a descendant.
func (d DescendantSet) Contains(pid int) bool {
	_, ok := d.member[pid]
	return ok
}

// Len returns the number of descendants across all layers.
func (d DescendantSet) Len() int { return len(d.member) }

// PIDs returns every descendant in ascending order.
func (d DescendantSet) PIDs() []int {
	pids := make([]int, 0, len(d.member))
	for pid := range d.member {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Descendants computes every process in snap that descends from roots.
//
// A process counts only when it started no earlier than the snapshot's own
// process: a pid that predates the supervisor cannot be a child of something
// the supervisor spawned, even if a recycled id makes its parent link match.
// Links whose parent is the supervisor itself are never followed from the
// roots.
func Descendants(snap *Snapshot, roots []int) DescendantSet {
	set := DescendantSet{member: make(map[int]struct{})}
	if snap == nil || len(roots) == 0 {
		return set
	}

	self := snap.Self()
	children := make(map[int][]int)
	for _, pid := range snap.PIDs() {
		e := snap.entries[pid]
		if e.PID == e.PPID || e.StartTime.Before(self.StartTime) {
			continue
		}
		children[e.PPID] = append(children[e.PPID], e.PID)
	}

	var frontier []int
	for _, root := range roots {
		if root == self.PID {
			continue
		}
		frontier = append(frontier, root)
	}
	seen := make(map[int]struct{}, len(frontier))
	for _, root := range frontier {
		seen[root] = struct{}{}
	}

	for len(frontier) > 0 {
		var layer []int
		for _, parent := range frontier {
			for _, child := range children[parent] {
				if _, dup := seen[child]; dup {
					continue
				}
				seen[child] = struct{}{}
				set.member[child] = struct{}{}
				layer = append(layer, child)
			}
		}
		if len(layer) == 0 {
			break
		}
		sort.Ints(layer)
		set.Layers = append(set.Layers, layer)
		frontier = layer
	}
	return set
}
