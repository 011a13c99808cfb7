// Package directory provides read access to the curated allow-list of
// provider place identifiers: the set of businesses an administrator has
// approved for exposure to the chat assistant.
package directory

import (
	"context"
	"sort"
)

// PlaceRef is one row of the allow-list.
type PlaceRef struct {
	PlaceID string `yaml:"place_id" json:"place_id" dynamodbav:"place_id"`
	Group   string `yaml:"group,omitempty" json:"group,omitempty" dynamodbav:"group_id"`
}

// Store is the contract the search tools consume. Implementations always
// read the current snapshot; nothing is cached across calls.
type Store interface {
	// ListAllCuratedPlaceIDs returns every allow-listed place id across all
	// groups, de-duplicated and in no particular order.
	ListAllCuratedPlaceIDs(ctx context.Context) ([]string, error)

	// FilterToKnownIDs returns the subset of candidates present in the
	// allow-list using case-sensitive exact matching.
	FilterToKnownIDs(ctx context.Context, candidates []string) ([]string, error)
}

// uniqueIDs collapses refs to a set of non-empty place ids.
func uniqueIDs(refs []PlaceRef) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.PlaceID == "" {
			continue
		}
		if _, ok := seen[ref.PlaceID]; ok {
			continue
		}
		seen[ref.PlaceID] = struct{}{}
		ids = append(ids, ref.PlaceID)
	}
	return ids
}

// intersect keeps the candidates that appear in known, each at most once.
func intersect(known []string, candidates []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, id := range known {
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := set[id]; ok {
			out = append(out, id)
			delete(set, id)
		}
	}
	return out
}

// groupRefs flattens a group -> ids mapping into refs with a stable order.
func groupRefs(groups map[string][]string) []PlaceRef {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []PlaceRef
	for _, name := range names {
		for _, id := range groups[name] {
			refs = append(refs, PlaceRef{PlaceID: id, Group: name})
		}
	}
	return refs
}
