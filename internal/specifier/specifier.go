// Package specifier builds the matcher that splits a dependency declaration
// such as "requests[security]>=2.0,<3.0" into its package name and version
// specifier.
package specifier

import (
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ethanolivertroy/pyproject-deps/internal/versioning"
)

const (
	// PackageGroup and SpecifierGroup are the only named captures of a Pattern.
	PackageGroup   = "package"
	SpecifierGroup = "specifier"

	// The multi-character alternative comes first: with leftmost-first
	// matching the single-character one would otherwise always win.
	packagePattern = `[a-zA-Z0-9][a-zA-Z0-9._-]*[a-zA-Z0-9]|[a-zA-Z0-9]`
	extrasPattern  = `(?:\s*\[[^\]]+\])?`
	urlPattern     = `\s*@\s*\S+`
	markerPattern  = `(?:\s*;.*)?`
)

// namedGroup matches the opening of a named capture in either RE2 spelling.
var namedGroup = regexp.MustCompile(`\(\?P?<\w+>`)

// Default is the matcher built from the PEP 440 range grammar. It is
// immutable and safe for concurrent use.
var Default = MustBuild(versioning.RangePattern)

// Pattern is a compiled dependency declaration matcher.
type Pattern struct {
	re      *regexp.Regexp
	pkgIdx  int
	specIdx int
}

// Build composes the declaration matcher around rangePattern, a grammar for
// a single comparator clause. Named captures inside rangePattern are turned
// into non-capturing groups so they cannot collide with the package and
// specifier captures. After the specifier only a direct URL reference, an
// environment marker and trailing whitespace may follow; anything else fails
// to match.
func Build(rangePattern string) (*Pattern, error) {
	if strings.TrimSpace(rangePattern) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("range pattern is empty")
	}

	part := `(?:` + StripNamedGroups(rangePattern) + `)`
	expr := `(?is)^\s*` +
		`(?P<` + PackageGroup + `>` + packagePattern + `)` +
		extrasPattern +
		`(?:\s*(?P<` + SpecifierGroup + `>` + part + `(?:\s*,\s*` + part + `)*)|` + urlPattern + `)?` +
		markerPattern + `\s*$`

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to compile dependency pattern").
			WithCause(err)
	}

	return &Pattern{
		re:      re,
		pkgIdx:  re.SubexpIndex(PackageGroup),
		specIdx: re.SubexpIndex(SpecifierGroup),
	}, nil
}

// MustBuild is like Build but panics if the pattern cannot be compiled.
func MustBuild(rangePattern string) *Pattern {
	p, err := Build(rangePattern)
	if err != nil {
		panic(err)
	}
	return p
}

// StripNamedGroups rewrites every named capture in expr as a non-capturing group.
func StripNamedGroups(expr string) string {
	return namedGroup.ReplaceAllLiteralString(expr, "(?:")
}

// Match splits decl into package name and specifier. ok is false when decl
// does not follow the declaration grammar; name and spec are then empty.
func (p *Pattern) Match(decl string) (name, spec string, ok bool) {
	m := p.re.FindStringSubmatch(decl)
	if m == nil {
		return "", "", false
	}
	return m[p.pkgIdx], m[p.specIdx], true
}

// Regexp returns the compiled composite expression.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

func (p *Pattern) String() string {
	return p.re.String()
}
