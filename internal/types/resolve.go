package types

import (
	"fmt"
	"strings"
)

// CycleError is returned when a reference chain revisits a node.
type CycleError struct {
	Chain []TypeID
	names []string
}

func (e *CycleError) Error() string {
	return "circular type reference: " + strings.Join(e.names, " -> ")
}

// UnresolvedError is returned for a reference without a target.
type UnresolvedError struct {
	ID   TypeID
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("reference %s has no target", e.Name)
}

// next returns the node a reference or selection points at. ok is false for
// non-references and for unfoldable references.
func (r *Registry) next(id TypeID) (TypeID, bool, error) {
	t, _ := r.Lookup(id)
	if !t.Category.IsReference() {
		return NoTypeID, false, nil
	}
	info := r.MustRefInfo(id)
	if info.Target == NoTypeID {
		if t.Category == CatReference || t.Category == CatSelection {
			return NoTypeID, false, &UnresolvedError{ID: id, Name: r.DisplayName(id)}
		}
		return NoTypeID, false, nil
	}
	if t.Category != CatSelection {
		return info.Target, true, nil
	}
	base, err := r.ResolveReference(info.Target)
	if err != nil {
		return NoTypeID, false, err
	}
	f, ok := r.Field(base, info.Alternative)
	if !ok || !r.Category(base).IsUnionLike() {
		return NoTypeID, false, &UnresolvedError{ID: id, Name: info.Alternative + " < " + r.DisplayName(base)}
	}
	return f.Type, true, nil
}

// ReferenceChain returns id followed by every node reached through references,
// ending at the first non-reference (or unfoldable) node.
func (r *Registry) ReferenceChain(id TypeID) ([]TypeID, error) {
	chain := []TypeID{id}
	visited := map[TypeID]struct{}{id: {}}
	cur := id
	for {
		nxt, ok, err := r.next(cur)
		if err != nil {
			return chain, err
		}
		if !ok {
			return chain, nil
		}
		chain = append(chain, nxt)
		if _, seen := visited[nxt]; seen {
			return chain, r.cycle(chain)
		}
		visited[nxt] = struct{}{}
		cur = nxt
	}
}

// ResolveReference follows references to the first non-reference node. The result is
// cached per node.
func (r *Registry) ResolveReference(id TypeID) (TypeID, error) {
	if res, ok := r.resolved[id]; ok {
		return res, nil
	}
	if _, busy := r.resolving[id]; busy {
		return r.Error(), r.cycle([]TypeID{id, id})
	}
	r.resolving[id] = struct{}{}
	defer delete(r.resolving, id)
	chain, err := r.ReferenceChain(id)
	if err != nil {
		return r.Error(), err
	}
	last := chain[len(chain)-1]
	for _, n := range chain {
		r.resolved[n] = last
	}
	return last, nil
}

// Resolved is ResolveReference for callers that treat failures as the error placeholder.
func (r *Registry) Resolved(id TypeID) TypeID {
	res, err := r.ResolveReference(id)
	if err != nil {
		return r.Error()
	}
	return res
}

func (r *Registry) cycle(chain []TypeID) *CycleError {
	names := make([]string, len(chain))
	for i, id := range chain {
		names[i] = r.DisplayName(id)
	}
	return &CycleError{Chain: chain, names: names}
}
