// Package matcher decides whether a changed file path is relevant to the
// supervised process.
//
// A path is relevant when it lies under a watched root, carries an allowed
// extension, contains no dot-prefixed or VCS path segment, and matches no
// ignore pattern. Matching is pure: no filesystem access, so literal
// path/config pairs can be tested directly.
package matcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// vcsDirs are directory names always excluded, independent of the dotfile
// rule and the configured ignore patterns.
var vcsDirs = map[string]bool{
	".git": true,
	".svn": true,
	".hg":  true,
	".bzr": true,
	"CVS":  true,
}

// ignorePattern is a configured exclusion, matched as a glob against the
// root-relative path and as a plain substring fallback.
type ignorePattern struct {
	raw  string
	glob glob.Glob
}

// Matcher reports whether changed paths are relevant.
type Matcher struct {
	roots   []string
	exts    map[string]bool
	ignores []ignorePattern
}

// New creates a matcher for the given watch roots, extension allow-list and
// ignore patterns.
//
// Roots must be absolute; extensions must be in dotted form (".php"). Both
// are guaranteed by config.Resolve. An ignore pattern that fails to compile
// as a glob is a configuration error.
func New(roots, extensions, ignorePatterns []string) (*Matcher, error) {
	m := &Matcher{
		exts: make(map[string]bool, len(extensions)),
	}

	for _, root := range roots {
		m.roots = append(m.roots, filepath.Clean(root))
	}
	for _, ext := range extensions {
		m.exts[ext] = true
	}

	for _, pattern := range ignorePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		m.ignores = append(m.ignores, ignorePattern{raw: pattern, glob: g})
	}

	return m, nil
}

// Matches reports whether path is a relevant change.
//
// The path is cleaned before matching; matching is case-sensitive.
func (m *Matcher) Matches(path string) bool {
	path = filepath.Clean(path)

	rel, ok := m.relativeTo(path)
	if !ok {
		return false
	}

	// The dotfile and VCS rule applies to the path below the watch root,
	// so a project that itself lives under a hidden directory still works.
	if hasHiddenSegment(rel) {
		return false
	}

	if m.isIgnored(rel) {
		return false
	}

	return m.exts[filepath.Ext(path)]
}

// relativeTo returns the path relative to the watch root containing it.
// The deepest containing root wins when roots are nested.
func (m *Matcher) relativeTo(path string) (rel string, ok bool) {
	var root string
	for _, r := range m.roots {
		candidate, err := filepath.Rel(r, path)
		if err != nil {
			continue
		}
		if candidate == ".." || strings.HasPrefix(candidate, ".."+string(filepath.Separator)) {
			continue
		}
		if !ok || len(r) > len(root) {
			root, rel, ok = r, candidate, true
		}
	}
	return rel, ok
}

// isIgnored reports whether the root-relative path matches any configured
// ignore pattern, either as a glob or as a substring.
func (m *Matcher) isIgnored(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, p := range m.ignores {
		if p.glob.Match(slashed) || p.glob.Match(filepath.Base(slashed)) {
			return true
		}
		if strings.Contains(slashed, p.raw) {
			return true
		}
	}
	return false
}

// hasHiddenSegment reports whether any path segment is dot-prefixed or a
// known VCS directory name.
func hasHiddenSegment(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if strings.HasPrefix(seg, ".") || vcsDirs[seg] {
			return true
		}
	}
	return false
}
