package lock

import (
	"sort"

	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// InheritMetadata propagates dependency-group membership from the
// project's declared group roots across the resolved dependency graph,
// so every package records which groups pull it in. Lock documents
// written after this step carry the inherit-metadata strategy flag that
// export depends on.
//
// roots maps a group name to its declared requirement lines. Lines that
// fail to parse are skipped; the resolver already validated them.
func InheritMetadata(res *Resolution, roots map[string][]string) {
	byKey := make(map[string][]*Package, len(res.Packages))
	for _, p := range res.Packages {
		key := p.Candidate.Key()
		byKey[key] = append(byKey[key], p)
	}

	groups := make([]string, 0, len(roots))
	for group := range roots {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	marked := make(map[string]map[string]bool, len(groups)) // key -> set of groups
	for _, group := range groups {
		visited := make(map[string]bool)
		queue := make([]string, 0, len(roots[group]))
		for _, line := range roots[group] {
			req, err := reqs.Parse(line)
			if err != nil {
				continue
			}
			queue = append(queue, req.Key())
		}
		for len(queue) > 0 {
			key := queue[0]
			queue = queue[1:]
			if key == "" || visited[key] {
				continue
			}
			visited[key] = true
			if marked[key] == nil {
				marked[key] = make(map[string]bool)
			}
			marked[key][group] = true
			for _, p := range byKey[key] {
				for _, dep := range p.Dependencies {
					req, err := reqs.Parse(dep)
					if err != nil {
						continue
					}
					queue = append(queue, req.Key())
				}
			}
		}
	}

	for _, p := range res.Packages {
		set := marked[p.Candidate.Key()]
		p.Groups = p.Groups[:0]
		for group := range set {
			p.Groups = append(p.Groups, group)
		}
		sort.Strings(p.Groups)
	}
	res.Groups = groups

	inheritMarkers(res, byKey)
}

// inheritMarkers assigns an environment marker to packages reached
// exclusively through marker-bearing dependency edges that agree on the
// marker. Conflicting or partially-marked incoming edges leave the
// package unconditional; full marker algebra belongs to the resolver.
func inheritMarkers(res *Resolution, byKey map[string][]*Package) {
	incoming := make(map[string][]string) // key -> markers of incoming edges
	for _, p := range res.Packages {
		for _, dep := range p.Dependencies {
			req, err := reqs.Parse(dep)
			if err != nil || req.Key() == "" {
				continue
			}
			incoming[req.Key()] = append(incoming[req.Key()], req.Marker)
		}
	}
	for key, markers := range incoming {
		marker := markers[0]
		if marker == "" {
			continue
		}
		agreed := true
		for _, m := range markers[1:] {
			if m != marker {
				agreed = false
				break
			}
		}
		if !agreed {
			continue
		}
		for _, p := range byKey[key] {
			if p.Candidate.Req.Marker == "" {
				clone := *p.Candidate.Req
				clone.Marker = marker
				p.Candidate.Req = &clone
			}
		}
	}
}
