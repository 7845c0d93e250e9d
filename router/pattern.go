package router

import (
	"fmt"
	"regexp"
	"strings"
)

// WildcardDefaultName is the binding key for an unnamed trailing wildcard.
const WildcardDefaultName = "*"

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentParam
	segmentWildcard
)

// segment is one element of a parsed route pattern: a literal, a named
// parameter with optional regexp validation (":id(\\d+)"), or a trailing
// wildcard ("*rest").
type segment struct {
	kind       segmentKind
	name       string
	validation *regexp.Regexp
}

// signature returns the segment's structural shape. Two patterns whose
// segments all share signatures are considered identical at registration.
func (s segment) signature() string {
	switch s.kind {
	case segmentParam:
		if s.validation != nil {
			return ":(" + s.validation.String() + ")"
		}
		return ":"
	case segmentWildcard:
		return "*"
	default:
		return "=" + s.name
	}
}

func parseParamSegment(raw string) (segment, error) {
	name := strings.TrimPrefix(raw, ":")
	if name == "" {
		return segment{}, fmt.Errorf("%w: parameter segment needs a name in %q", ErrInvalidPattern, raw)
	}

	var validation *regexp.Regexp
	if open := strings.IndexByte(name, '('); open != -1 {
		if !strings.HasSuffix(name, ")") {
			return segment{}, fmt.Errorf("%w: unterminated validation in %q", ErrInvalidPattern, raw)
		}
		expr := name[open+1 : len(name)-1]
		name = name[:open]
		if name == "" || expr == "" {
			return segment{}, fmt.Errorf("%w: validated parameter needs both a name and an expression in %q", ErrInvalidPattern, raw)
		}

		compiled, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return segment{}, fmt.Errorf("%w: bad validation expression in %q: %v", ErrInvalidPattern, raw, err)
		}
		validation = compiled
	}

	return segment{kind: segmentParam, name: name, validation: validation}, nil
}

// parsePattern splits a route pattern into segments. Wildcards may only
// appear as the final segment and parameter names must be unique within one
// pattern.
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: pattern must start with '/': %q", ErrInvalidPattern, pattern)
	}

	var segments []segment
	seen := map[string]bool{}

	for raw := range strings.SplitSeq(strings.Trim(pattern, "/"), "/") {
		if raw == "" {
			continue
		}
		if len(segments) > 0 && segments[len(segments)-1].kind == segmentWildcard {
			return nil, fmt.Errorf("%w: wildcard must be the final segment: %q", ErrInvalidPattern, pattern)
		}

		switch {
		case strings.HasPrefix(raw, ":"):
			seg, err := parseParamSegment(raw)
			if err != nil {
				return nil, err
			}
			if seen[seg.name] {
				return nil, fmt.Errorf("%w: duplicate parameter name %q in %q", ErrInvalidPattern, seg.name, pattern)
			}
			seen[seg.name] = true
			segments = append(segments, seg)

		case strings.HasPrefix(raw, "*"):
			name := strings.TrimPrefix(raw, "*")
			if name == "" {
				name = WildcardDefaultName
			}
			segments = append(segments, segment{kind: segmentWildcard, name: name})

		default:
			segments = append(segments, segment{kind: segmentLiteral, name: raw})
		}
	}

	return segments, nil
}

func patternSignature(segments []segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.signature()
	}
	return strings.Join(parts, "/")
}
