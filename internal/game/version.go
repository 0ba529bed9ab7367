package game

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Version is an engine version tuple such as [2019 4 30 1].
// Missing trailing components compare as zero.
type Version []int

// ParseVersion parses strings like "2019.4.30f1" or "5.3.4p2" into a Version.
// The release letter separates the third and fourth components.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("invalid version string %q", s)
	}
	v := make(Version, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q in %q: %w", f, s, err)
		}
		v = append(v, n)
	}
	return v, nil
}

// MustParseVersion is ParseVersion for constants and tests
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// At returns component i, or 0 when the version is shorter
func (v Version) At(i int) int {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// Compare orders versions lexicographically: -1, 0 or +1
func (v Version) Compare(o Version) int {
	n := max(len(v), len(o))
	for i := range n {
		a, b := v.At(i), o.At(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v >= the given leading components
func (v Version) AtLeast(parts ...int) bool {
	return v.Compare(Version(parts)) >= 0
}

// Below reports whether v < the given leading components
func (v Version) Below(parts ...int) bool {
	return !v.AtLeast(parts...)
}

// Major and Minor are the two components schema predicates look at
func (v Version) Major() int { return v.At(0) }
func (v Version) Minor() int { return v.At(1) }

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
