package devpath

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single node name with an optional unit address.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9,._+-]+)(?:@([a-zA-Z0-9,._+-]+))?$`)

// isValidNodeName rejects names that are technically matched but meaningless.
func isValidNodeName(name string) bool {
	return name != "." && name != ".."
}

// Parse creates a new Path by parsing its canonical string representation.
func Parse(raw string) (*Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("device path cannot be empty")
	}
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("device path %q must be absolute", raw)
	}
	if raw == "/" {
		return &Path{}, nil
	}

	p := &Path{}
	for _, segmentStr := range strings.Split(raw[1:], "/") {
		if segmentStr == "" {
			return nil, fmt.Errorf("device path %q contains empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}
		if !isValidNodeName(matches[1]) {
			return nil, fmt.Errorf("invalid node name: %q", matches[1])
		}
		p.Segments = append(p.Segments, NewSegmentAt(matches[1], matches[2]))
	}

	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(raw string) *Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
