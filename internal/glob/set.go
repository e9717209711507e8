package glob

import "fmt"

// Set is a list of validated patterns.
type Set struct {
	patterns []string
}

// Compile validates every pattern up front so later matching cannot fail.
func Compile(patterns []string) (Set, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if err := Validate(p); err != nil {
			return Set{}, fmt.Errorf("compile glob set: %w", err)
		}
		out = append(out, filepathToSlash(p))
	}
	return Set{patterns: out}, nil
}

// MustCompile is like Compile but panics on a malformed pattern.
func MustCompile(patterns []string) Set {
	s, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Set) Len() int { return len(s.patterns) }

func (s Set) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Matches reports whether path matches any pattern in the set.
func (s Set) Matches(path string) bool {
	ok, _ := MatchAny(s.patterns, path)
	return ok
}
