// Package history parses the revision listing of a migration tool and answers ordering
// questions over it: ranges, previous and next revision, and validation.
//
// Lines are expected in the shape "revision -> parent", newest first:
//
//	R2 -> R1
//	R1 -> base
package history

import (
	"strings"
)

// Base is the revision before any migration is applied.
const Base = "base"

const arrow = "->"

type record struct {
	revision string
	parent   string // Base for root
}

// History is an immutable view of a revision graph.
type History struct {
	records  []record            // in upgrade order, oldest first
	index    map[string]int      // revision => position in records
	children map[string][]string // parent => children in upgrade order
}

// Parse builds History from raw history lines.
func Parse(lines []string) (History, error) {
	parsed := make([]record, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return History{}, err
		}

		if _, exist := seen[rec.revision]; exist {
			return History{}, &ParseError{Line: line, Reason: "duplicate revision"}
		}

		seen[rec.revision] = struct{}{}
		parsed = append(parsed, rec)
	}

	// listing is newest first, we keep oldest first
	h := History{
		records:  make([]record, 0, len(parsed)),
		index:    make(map[string]int, len(parsed)),
		children: make(map[string][]string),
	}

	for i := len(parsed) - 1; i >= 0; i-- {
		rec := parsed[i]
		if _, exist := seen[rec.parent]; !exist && rec.parent != Base {
			return History{}, &ParseError{
				Line:   rec.revision + " " + arrow + " " + rec.parent,
				Reason: "parent is not a known revision",
			}
		}

		h.index[rec.revision] = len(h.records)
		h.records = append(h.records, rec)
		h.children[rec.parent] = append(h.children[rec.parent], rec.revision)
	}

	return h, nil
}

func parseLine(line string) (record, error) {
	left, right, found := strings.Cut(line, arrow)
	if !found {
		return record{}, &ParseError{Line: line, Reason: "missing '" + arrow + "'"}
	}

	revision := strings.TrimSpace(left)
	if revision == "" || strings.ContainsAny(revision, " \t") {
		return record{}, &ParseError{Line: line, Reason: "revision must be a single token"}
	}

	// parent is the first token, anything after it like "(head)" or ", message" is ignored
	fields := strings.Fields(strings.ReplaceAll(right, ",", " "))
	if len(fields) == 0 {
		return record{}, &ParseError{Line: line, Reason: "missing parent revision"}
	}

	parent := fields[0]
	if parent == "<base>" {
		parent = Base
	}

	if revision == Base || revision == parent {
		return record{}, &ParseError{Line: line, Reason: "invalid revision"}
	}

	return record{revision: revision, parent: parent}, nil
}

// Len returns number of revisions.
func (h History) Len() int {
	return len(h.records)
}

// Revisions returns all revisions in upgrade order.
func (h History) Revisions() []string {
	out := make([]string, 0, len(h.records))
	for _, rec := range h.records {
		out = append(out, rec.revision)
	}

	return out
}

// Heads returns revisions without children, in upgrade order.
func (h History) Heads() []string {
	out := make([]string, 0)
	for _, rec := range h.records {
		if len(h.children[rec.revision]) == 0 {
			out = append(out, rec.revision)
		}
	}

	return out
}

// ValidateRevision returns UnknownRevisionError when revision is not "base" nor in History.
func (h History) ValidateRevision(revision string) error {
	if revision == Base {
		return nil
	}

	if _, ok := h.index[revision]; !ok {
		return &UnknownRevisionError{Revision: revision}
	}

	return nil
}

// RevisionRange returns every revision strictly after start up to and including end,
// oldest first. Only ancestor links of end are followed.
func (h History) RevisionRange(start, end string) ([]string, error) {
	if err := h.ValidateRevision(start); err != nil {
		return nil, err
	}

	if end == Base {
		if start == Base {
			return []string{}, nil
		}

		return nil, &RangeError{Start: start, End: end, Reason: "cannot upgrade towards base"}
	}

	if err := h.ValidateRevision(end); err != nil {
		return nil, err
	}

	walked := make([]string, 0)
	for current := end; current != start; {
		if current == Base {
			return nil, &RangeError{Start: start, End: end, Reason: "start is not an ancestor of end"}
		}

		walked = append(walked, current)
		current = h.records[h.index[current]].parent
	}

	// reverse into upgrade order
	for i, j := 0, len(walked)-1; i < j; i, j = i+1, j-1 {
		walked[i], walked[j] = walked[j], walked[i]
	}

	return walked, nil
}

// PreviousRevision returns the parent of revision, "base" for root revision.
func (h History) PreviousRevision(revision string) (string, error) {
	if revision == Base {
		return "", &RangeError{Start: Base, Reason: "base has no previous revision"}
	}

	if err := h.ValidateRevision(revision); err != nil {
		return "", err
	}

	return h.records[h.index[revision]].parent, nil
}

// NextRevision returns the child of revision. The boolean is false when revision is a head.
// For "base" the earliest root is returned.
func (h History) NextRevision(revision string) (string, bool, error) {
	if err := h.ValidateRevision(revision); err != nil {
		return "", false, err
	}

	children := h.children[revision]
	switch {
	case len(children) == 0:
		return "", false, nil
	case len(children) == 1, revision == Base:
		return children[0], true, nil
	default:
		return "", false, &RangeError{
			Start:  revision,
			Reason: "revision has more than one child: " + strings.Join(children, ", "),
		}
	}
}
