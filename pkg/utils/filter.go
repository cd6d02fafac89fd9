package utils

import (
	"fmt"

	"github.com/gobwas/glob"
)

// GlobFilter matches strings against a list of glob patterns. An empty filter matches everything.
type GlobFilter struct {
	patterns []string
	globs    []glob.Glob
}

func NewGlobFilter(patterns []string) (*GlobFilter, error) {
	f := &GlobFilter{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern '%s': %w", p, err)
		}
		f.patterns = append(f.patterns, p)
		f.globs = append(f.globs, g)
	}
	return f, nil
}

func (f *GlobFilter) Match(s string) bool {
	if f == nil || len(f.globs) == 0 {
		return true
	}
	for _, g := range f.globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

func (f *GlobFilter) String() string {
	return fmt.Sprintf("%v", f.patterns)
}
