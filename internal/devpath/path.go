package devpath

import (
	"slices"
	"strings"
)

// String serializes the Path into its canonical slash-separated form.
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	if len(p.Segments) == 0 {
		return "/"
	}

	var sb strings.Builder
	for _, segment := range p.Segments {
		sb.WriteRune('/')
		sb.WriteString(segment.String())
	}
	return sb.String()
}

// Equal checks for deep equality between two Path pointers.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	return slices.Equal(p.Segments, other.Segments)
}

// IsRoot reports whether p is the root node.
func (p *Path) IsRoot() bool {
	return p != nil && len(p.Segments) == 0
}

// Parent returns the path of the enclosing node. The root has no parent.
func (p *Path) Parent() (*Path, bool) {
	if p == nil || len(p.Segments) == 0 {
		return nil, false
	}
	return &Path{Segments: slices.Clone(p.Segments[:len(p.Segments)-1])}, true
}

// Base returns the last segment of the path.
func (p *Path) Base() (Segment, bool) {
	if p == nil || len(p.Segments) == 0 {
		return Segment{}, false
	}
	return p.Segments[len(p.Segments)-1], true
}

// Depth is the number of segments below the root.
func (p *Path) Depth() int {
	if p == nil {
		return 0
	}
	return len(p.Segments)
}
