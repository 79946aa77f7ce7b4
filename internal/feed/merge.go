package feed

import (
	"slices"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// SortByTime returns a copy of msgs in ascending CreationTime order.
// Messages sharing a timestamp keep their input order.
func SortByTime(msgs []models.Message) []models.Message {
	out := slices.Clone(msgs)
	slices.SortStableFunc(out, func(a, b models.Message) int {
		switch {
		case a.CreationTime < b.CreationTime:
			return -1
		case a.CreationTime > b.CreationTime:
			return 1
		}
		return 0
	})
	if out == nil {
		return []models.Message{}
	}
	return out
}

// Deduplicate keeps the first occurrence of every id.
func Deduplicate(msgs []models.Message) []models.Message {
	seen := make(map[models.ObjectID]struct{}, len(msgs))
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func normalize(msgs []models.Message) []models.Message {
	return SortByTime(Deduplicate(msgs))
}

// MergeAuthoritative treats authoritative as the whole truth: entries of
// existing that it does not mention are dropped, the rest are replaced by
// their authoritative version.
func MergeAuthoritative(existing, authoritative []models.Message) []models.Message {
	ids := idSet(authoritative)
	merged := make([]models.Message, 0, len(authoritative)+len(existing))
	merged = append(merged, authoritative...)
	for _, m := range existing {
		if _, ok := ids[m.ID]; ok {
			merged = append(merged, m)
		}
	}
	return normalize(merged)
}

// MergeAuthoritativeRange applies authoritative only to the entries of
// existing whose CreationTime falls inside rng. Entries outside rng were
// paged in explicitly and are kept untouched.
func MergeAuthoritativeRange(existing, authoritative []models.Message, rng models.LiveRange) []models.Message {
	merged := make([]models.Message, 0, len(authoritative)+len(existing))
	merged = append(merged, authoritative...)
	for _, m := range existing {
		if !rng.Contains(m.CreationTime) {
			merged = append(merged, m)
		}
	}
	return normalize(merged)
}

// MergeOlder prepends a page of older messages. Nothing is ever dropped.
func MergeOlder(existing, older []models.Message) []models.Message {
	merged := make([]models.Message, 0, len(older)+len(existing))
	merged = append(merged, older...)
	merged = append(merged, existing...)
	return normalize(merged)
}

// MergeNewer appends a page of newer messages. Nothing is ever dropped.
func MergeNewer(existing, newer []models.Message) []models.Message {
	merged := make([]models.Message, 0, len(newer)+len(existing))
	merged = append(merged, existing...)
	merged = append(merged, newer...)
	return normalize(merged)
}

// ArraysEqual compares id and CreationTime pairwise, in order.
func ArraysEqual(a, b []models.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].CreationTime != b[i].CreationTime {
			return false
		}
	}
	return true
}

// sameContent is ArraysEqual plus the mutable fields, so edits are not
// swallowed by the short-circuit.
func sameContent(a, b []models.Message) bool {
	if !ArraysEqual(a, b) {
		return false
	}
	for i := range a {
		if a[i].Body != b[i].Body || a[i].Edited != b[i].Edited || a[i].Format != b[i].Format {
			return false
		}
	}
	return true
}

func idSet(msgs []models.Message) map[models.ObjectID]struct{} {
	ids := make(map[models.ObjectID]struct{}, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	return ids
}

func indexOf(msgs []models.Message, id models.ObjectID) int {
	return slices.IndexFunc(msgs, func(m models.Message) bool { return m.ID == id })
}
