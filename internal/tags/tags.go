// Package tags resolves the effective curation status of catalog tags.
//
// Tags carry an explicit TagStatus on newer records and only a legacy
// Excluded flag on older ones. Resolve is the single place that combines the
// two; everything else asks IsActive, IsProposed or IsExcluded.
package tags

import "strings"

// Status is a tag's curation status.
type Status string

const (
	StatusActive   Status = "active"
	StatusProposed Status = "proposed"
	StatusExcluded Status = "excluded"
)

// ParseStatus converts a raw string into a Status. Matching ignores case and
// surrounding whitespace.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusActive, StatusProposed, StatusExcluded:
		return s, true
	default:
		return "", false
	}
}

// Tag is a catalog tag attached to an entry.
type Tag struct {
	DocumentID string
	Name       string
	// TagStatus takes precedence when set.
	TagStatus *Status
	// Excluded is the legacy flag consulted only when TagStatus is nil.
	Excluded *bool
}

// Resolve returns the effective status: TagStatus when present, otherwise
// excluded if the legacy flag is true, otherwise active.
func Resolve(tag Tag) Status {
	if tag.TagStatus != nil {
		return *tag.TagStatus
	}
	if tag.Excluded != nil && *tag.Excluded {
		return StatusExcluded
	}
	return StatusActive
}

func IsActive(tag Tag) bool { return Resolve(tag) == StatusActive }

func IsProposed(tag Tag) bool { return Resolve(tag) == StatusProposed }

func IsExcluded(tag Tag) bool { return Resolve(tag) == StatusExcluded }

// Visible keeps the tags shown while browsing the catalog.
func Visible(in []Tag) []Tag {
	return filter(in, IsActive)
}

// RegenerationCandidates keeps the tags a tags regeneration may retain.
// Excluded tags are never offered back to the generator.
func RegenerationCandidates(in []Tag) []Tag {
	return filter(in, func(tag Tag) bool { return !IsExcluded(tag) })
}

// Partition groups tags by resolved status.
func Partition(in []Tag) map[Status][]Tag {
	out := make(map[Status][]Tag, 3)
	for _, tag := range in {
		status := Resolve(tag)
		out[status] = append(out[status], tag)
	}
	return out
}

func filter(in []Tag, keep func(Tag) bool) []Tag {
	out := make([]Tag, 0, len(in))
	for _, tag := range in {
		if keep(tag) {
			out = append(out, tag)
		}
	}
	return out
}
