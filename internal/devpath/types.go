package devpath

// Segment is a single node of a devicetree path, e.g. `spi@a000`.
type Segment struct {
	Name        string
	UnitAddress string // empty when the node has no unit address
}

// NewSegment creates a segment without a unit address.
func NewSegment(name string) Segment {
	return Segment{Name: name}
}

// NewSegmentAt creates a segment with a unit address.
func NewSegmentAt(name, unitAddress string) Segment {
	return Segment{Name: name, UnitAddress: unitAddress}
}

// HasUnitAddress reports whether the segment carries a unit address.
func (s Segment) HasUnitAddress() bool {
	return s.UnitAddress != ""
}

// String renders the segment in its canonical `name[@unit]` form.
func (s Segment) String() string {
	if s.UnitAddress == "" {
		return s.Name
	}
	return s.Name + "@" + s.UnitAddress
}

// Path is the structured representation of a devicetree node path. The
// root node has no segments.
type Path struct {
	Segments []Segment
}
