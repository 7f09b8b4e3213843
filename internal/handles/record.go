package handles

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/specialistvlad/devinit/internal/devtable"
)

// Sentinel tokens of the flat record form. Neither can be a component handle.
const (
	Sep devtable.ID = math.MinInt16
	End devtable.ID = math.MaxInt16
)

// ErrMalformedRecord is returned when a token sequence does not follow the
// record grammar of the requested layout.
var ErrMalformedRecord = errors.New("malformed handle record")

// Layout selects the token grammar of a flat record.
type Layout int

const (
	// LayoutSplit is `requires..., SEP, supports..., SEP, END`.
	LayoutSplit Layout = iota
	// LayoutZephyr is `requires..., SEP, injected..., SEP, supports..., END`,
	// the layout of Zephyr's generated device handle arrays. The injected
	// section is always empty.
	LayoutZephyr
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutSplit:
		return "split"
	case LayoutZephyr:
		return "zephyr"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a layout name back to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "split", "":
		return LayoutSplit, nil
	case "zephyr":
		return LayoutZephyr, nil
	default:
		return 0, fmt.Errorf("unknown record layout %q: must be 'split' or 'zephyr'", s)
	}
}

// Record is the relationship record of one component.
type Record struct {
	Requires []devtable.ID
	Supports []devtable.ID
}

// Equal reports whether both lists of r and other hold the same handles in
// the same order.
func (r Record) Equal(other Record) bool {
	return slices.Equal(r.Requires, other.Requires) && slices.Equal(r.Supports, other.Supports)
}

// Records maps every component handle to its record.
type Records map[devtable.ID]Record

// IDs returns the handles present in rs in ascending order.
func (rs Records) IDs() []devtable.ID {
	ids := make([]devtable.ID, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Encode flattens r into a sentinel-delimited token sequence.
func (r Record) Encode(layout Layout) []devtable.ID {
	tokens := make([]devtable.ID, 0, len(r.Requires)+len(r.Supports)+3)
	tokens = append(tokens, r.Requires...)
	tokens = append(tokens, Sep)
	switch layout {
	case LayoutZephyr:
		tokens = append(tokens, Sep)
		tokens = append(tokens, r.Supports...)
	default:
		tokens = append(tokens, r.Supports...)
		tokens = append(tokens, Sep)
	}
	return append(tokens, End)
}

// Decode recovers a record from its flat form. The sequence must end with
// exactly one END token.
func Decode(tokens []devtable.ID, layout Layout) (Record, error) {
	requires, rest, err := readList(tokens, Sep)
	if err != nil {
		return Record{}, fmt.Errorf("requires list: %w", err)
	}

	var supports []devtable.ID
	switch layout {
	case LayoutZephyr:
		var injected []devtable.ID
		injected, rest, err = readList(rest, Sep)
		if err != nil {
			return Record{}, fmt.Errorf("injected list: %w", err)
		}
		if len(injected) > 0 {
			return Record{}, fmt.Errorf("%w: injected dependencies %v are not supported", ErrMalformedRecord, injected)
		}
		supports, rest, err = readList(rest, End)
		if err != nil {
			return Record{}, fmt.Errorf("supports list: %w", err)
		}
	default:
		supports, rest, err = readList(rest, Sep)
		if err != nil {
			return Record{}, fmt.Errorf("supports list: %w", err)
		}
		if len(rest) == 0 || rest[0] != End {
			return Record{}, fmt.Errorf("%w: missing END after supports list", ErrMalformedRecord)
		}
		rest = rest[1:]
	}

	if len(rest) > 0 {
		return Record{}, fmt.Errorf("%w: %d trailing tokens after END", ErrMalformedRecord, len(rest))
	}
	return Record{Requires: requires, Supports: supports}, nil
}

// readList consumes handles up to and including the terminator token.
func readList(tokens []devtable.ID, terminator devtable.ID) (list, rest []devtable.ID, err error) {
	list = []devtable.ID{}
	for i, tok := range tokens {
		switch {
		case tok == terminator:
			return list, tokens[i+1:], nil
		case tok == Sep || tok == End:
			return nil, nil, fmt.Errorf("%w: unexpected sentinel %s at position %d", ErrMalformedRecord, TokenName(tok), i)
		case tok <= devtable.Null:
			return nil, nil, fmt.Errorf("%w: invalid handle %d at position %d", ErrMalformedRecord, tok, i)
		}
		list = append(list, tok)
	}
	return nil, nil, fmt.Errorf("%w: missing %s", ErrMalformedRecord, TokenName(terminator))
}

// TokenName renders a token the way generated tables spell it.
func TokenName(tok devtable.ID) string {
	switch tok {
	case Sep:
		return "DEVICE_HANDLE_SEP"
	case End:
		return "DEVICE_HANDLE_ENDS"
	default:
		return fmt.Sprintf("%d", tok)
	}
}
