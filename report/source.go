package report

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SourceLoc is an opaque handle to a position in the source text.  The zero
// value is the invalid location.  Handles are allocated by a SourceManager and
// only that manager can decode them.
type SourceLoc uint32

// IsValid returns whether the location refers to an actual source position.
func (loc SourceLoc) IsValid() bool {
	return loc != 0
}

// SourceRange is a half-open range of source text: Begin is the location of
// the first token of the range and End is the location one past the last
// token.
type SourceRange struct {
	Begin, End SourceLoc
}

// RangeOver returns the source range spanning over and between the two given
// ranges.
func RangeOver(start, end SourceRange) SourceRange {
	return SourceRange{Begin: start.Begin, End: end.End}
}

// Position is a decoded source location.
type Position struct {
	// The name the file was registered under.
	File string

	// The one-indexed line and column of the location.
	Line, Col int

	// The location this position was macro-expanded from, if any.  Invalid if
	// the position is not the result of an expansion.
	ExpandedFrom SourceLoc
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// -----------------------------------------------------------------------------

// fileEntry records one file registered with a source manager.
type fileEntry struct {
	name string

	// The full source text of the file as provided by the token cache.
	content string

	// The first location handle assigned to this file.  Offsets into the file
	// are encoded as base+offset.
	base SourceLoc

	// The location the file's inclusion or expansion was requested from.
	expandedFrom SourceLoc
}

// SourceManager owns the mapping between opaque location handles and decoded
// file positions.  It is single-writer: one translation unit registers files
// and decodes locations; separate translation units get separate managers.
type SourceManager struct {
	// Files in order of registration.  Entry bases are strictly increasing,
	// so a handle is decoded by binary search over the bases.
	files []*fileEntry

	// The next unallocated location handle.
	nextBase SourceLoc

	// Cache of computed per-file line start offsets, keyed by file base.
	lineCache *lru.Cache[SourceLoc, []int]
}

// NewSourceManager creates an empty source manager.
func NewSourceManager() *SourceManager {
	// The cache size bounds memory on very wide translation units; decoding
	// re-derives evicted entries.
	cache, _ := lru.New[SourceLoc, []int](128)

	return &SourceManager{
		nextBase:  1,
		lineCache: cache,
	}
}

// AddFile registers a file's source text under the given name and returns the
// location of its first character.  The expandedFrom location may be invalid
// for top-level files.
func (sm *SourceManager) AddFile(name, content string, expandedFrom SourceLoc) SourceLoc {
	entry := &fileEntry{
		name:         name,
		content:      content,
		base:         sm.nextBase,
		expandedFrom: expandedFrom,
	}

	sm.files = append(sm.files, entry)
	sm.nextBase += SourceLoc(len(content)) + 1
	return entry.base
}

// LocAt returns the location handle for the given byte offset into the file
// whose first character is at base.
func (sm *SourceManager) LocAt(base SourceLoc, offset int) SourceLoc {
	return base + SourceLoc(offset)
}

// Decode translates an opaque location handle into a file position.  Decoding
// an invalid handle yields a zero Position.
func (sm *SourceManager) Decode(loc SourceLoc) Position {
	entry := sm.entryFor(loc)
	if entry == nil {
		return Position{}
	}

	offset := int(loc - entry.base)
	starts := sm.lineStarts(entry)

	// The line is the last line start at or before the offset.
	ln := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1

	return Position{
		File:         entry.name,
		Line:         ln + 1,
		Col:          offset - starts[ln] + 1,
		ExpandedFrom: entry.expandedFrom,
	}
}

// ExpansionTrail returns the chain of positions a location was expanded
// through, outermost last.  For locations in top-level files the trail has a
// single element.
func (sm *SourceManager) ExpansionTrail(loc SourceLoc) []Position {
	var trail []Position

	for loc.IsValid() {
		pos := sm.Decode(loc)
		if pos.File == "" {
			break
		}

		trail = append(trail, pos)
		loc = pos.ExpandedFrom
	}

	return trail
}

// SourceLine returns the text of the line containing the given location with
// trailing line terminators removed.  Returns "" for invalid locations.
func (sm *SourceManager) SourceLine(loc SourceLoc) string {
	entry := sm.entryFor(loc)
	if entry == nil {
		return ""
	}

	offset := int(loc - entry.base)
	starts := sm.lineStarts(entry)
	ln := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1

	lineEnd := len(entry.content)
	if ln+1 < len(starts) {
		lineEnd = starts[ln+1]
	}

	return strings.TrimRight(entry.content[starts[ln]:lineEnd], "\r\n")
}

// -----------------------------------------------------------------------------

// entryFor locates the file entry containing the given handle.
func (sm *SourceManager) entryFor(loc SourceLoc) *fileEntry {
	if !loc.IsValid() || len(sm.files) == 0 {
		return nil
	}

	ndx := sort.Search(len(sm.files), func(i int) bool { return sm.files[i].base > loc }) - 1
	if ndx < 0 {
		return nil
	}

	entry := sm.files[ndx]
	if int(loc-entry.base) > len(entry.content) {
		return nil
	}

	return entry
}

// lineStarts returns the byte offsets beginning each line of the entry,
// consulting the line cache first.
func (sm *SourceManager) lineStarts(entry *fileEntry) []int {
	if starts, ok := sm.lineCache.Get(entry.base); ok {
		return starts
	}

	starts := []int{0}
	for i, c := range entry.content {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}

	sm.lineCache.Add(entry.base, starts)
	return starts
}
