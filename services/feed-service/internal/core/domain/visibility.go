package domain

import "sort"

// VisibilitySet regroupe les auteurs masqués pour un viewer.
type VisibilitySet struct {
	BlockedByMe map[string]struct{}
	BlockedMe   map[string]struct{}
	MutedByMe   map[string]struct{}
}

func NewVisibilitySet(blockedByMe, blockedMe, mutedByMe []string) VisibilitySet {
	return VisibilitySet{
		BlockedByMe: toSet(blockedByMe),
		BlockedMe:   toSet(blockedMe),
		MutedByMe:   toSet(mutedByMe),
	}
}

// IsHidden : authorId ∈ blockedByMe ∪ blockedMe ∪ mutedByMe.
// C'est l'unique prédicat, utilisé pour le push-down SQL (via Excluded) et pour la passe mémoire.
func (v VisibilitySet) IsHidden(authorID string) bool {
	if _, ok := v.BlockedByMe[authorID]; ok {
		return true
	}
	if _, ok := v.BlockedMe[authorID]; ok {
		return true
	}
	_, ok := v.MutedByMe[authorID]
	return ok
}

// WithoutSelf retire le viewer lui-même : il n'est jamais masqué par ce filtre.
func (v VisibilitySet) WithoutSelf(viewerID string) VisibilitySet {
	out := VisibilitySet{
		BlockedByMe: make(map[string]struct{}, len(v.BlockedByMe)),
		BlockedMe:   make(map[string]struct{}, len(v.BlockedMe)),
		MutedByMe:   make(map[string]struct{}, len(v.MutedByMe)),
	}
	for id := range v.BlockedByMe {
		if id != viewerID {
			out.BlockedByMe[id] = struct{}{}
		}
	}
	for id := range v.BlockedMe {
		if id != viewerID {
			out.BlockedMe[id] = struct{}{}
		}
	}
	for id := range v.MutedByMe {
		if id != viewerID {
			out.MutedByMe[id] = struct{}{}
		}
	}
	return out
}

// Excluded liste (triée) des auteurs à exclure côté requête.
func (v VisibilitySet) Excluded() []string {
	seen := make(map[string]struct{}, len(v.BlockedByMe)+len(v.BlockedMe)+len(v.MutedByMe))
	for _, set := range []map[string]struct{}{v.BlockedByMe, v.BlockedMe, v.MutedByMe} {
		for id := range set {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (v VisibilitySet) Lists() (blockedByMe, blockedMe, mutedByMe []string) {
	return sortedKeys(v.BlockedByMe), sortedKeys(v.BlockedMe), sortedKeys(v.MutedByMe)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
