package index

import (
	"strconv"
	"strings"
)

// Parse reads a subscript written the way it would appear between square
// brackets: "...", ":", "179", "179, 0:2, ::4" or "..., 0". A single
// component without a comma parses to its bare form; anything with a comma
// parses to a Tuple.
func Parse(s string) (Subscript, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalidf("empty subscript")
	}
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		return parseComponent(parts[0])
	}
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	t := make(Tuple, len(parts))
	for i, p := range parts {
		c, err := parseComponent(p)
		if err != nil {
			return nil, err
		}
		t[i] = c
	}
	return t, nil
}

func parseComponent(s string) (Subscript, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, invalidf("empty component")
	case s == "...":
		return Ellipsis, nil
	case strings.Contains(s, ":"):
		return parseSlice(s)
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalidf("component %q is not an integer", s)
	}
	return Int(i), nil
}

func parseSlice(s string) (Subscript, error) {
	fields := strings.Split(s, ":")
	if len(fields) > 3 {
		return nil, invalidf("slice %q has more than three fields", s)
	}
	var bounds [3]*int
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, invalidf("slice %q: field %q is not an integer", s, f)
		}
		bounds[i] = &v
	}
	return Slice{Start: bounds[0], Stop: bounds[1], Step: bounds[2]}, nil
}
