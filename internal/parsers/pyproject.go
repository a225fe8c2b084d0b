package parsers

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
	"github.com/ethanolivertroy/pyproject-deps/internal/specifier"
	"github.com/ethanolivertroy/pyproject-deps/internal/versioning"
)

// FileMatch matches the conventional pyproject.toml file name anywhere in a tree.
const FileMatch = `(^|/)pyproject\.toml$`

const parseErrorPrefix = "failed to parse pyproject.toml"

var fileMatchRegexp = regexp.MustCompile(FileMatch)

// HatchManager is the host-facing description of the pyproject.toml extractor.
var HatchManager = Manager{
	Name:                 "hatch",
	FileMatch:            []string{FileMatch},
	SupportedDatasources: []models.Datasource{models.DatasourcePyPI},
	Categories:           []string{"python"},
}

// pyproject is the part of pyproject.toml that declares dependencies
type pyproject struct {
	BuildSystem struct {
		Requires []string `toml:"requires"`
	} `toml:"build-system"`
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Hatch struct {
			Envs map[string]hatchEnv `toml:"envs"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

type hatchEnv struct {
	Dependencies []string `toml:"dependencies"`
}

// document is a decoded pyproject.toml together with the order in which its
// keys appear in the source text and where each assignment starts.
type document struct {
	pyproject
	keys    []toml.Key
	src     string
	offsets map[string]int
	cursor  map[string]int
}

// PyProjectParser extracts dependencies from pyproject.toml files
type PyProjectParser struct {
	pattern *specifier.Pattern
}

// NewPyProjectParser returns a parser using the PEP 440 declaration pattern
func NewPyProjectParser() *PyProjectParser {
	return &PyProjectParser{pattern: specifier.Default}
}

// NewPyProjectParserWithPattern returns a parser using a custom declaration pattern
func NewPyProjectParserWithPattern(p *specifier.Pattern) *PyProjectParser {
	return &PyProjectParser{pattern: p}
}

// CanParse returns true for pyproject.toml files
func (p *PyProjectParser) CanParse(path string) bool {
	return fileMatchRegexp.MatchString(filepath.ToSlash(path))
}

// Parse extracts dependencies from pyproject.toml content
func (p *PyProjectParser) Parse(path string, content []byte) (*models.PackageFile, error) {
	doc, err := decode(content)
	if err != nil {
		return nil, err
	}

	deps := make([]models.Dependency, 0)
	deps = append(deps, p.extractBuildSystemRequires(doc)...)
	deps = append(deps, p.extractProjectDependencies(doc)...)
	deps = append(deps, p.extractOptionalDependencies(doc)...)
	deps = append(deps, p.extractHatchEnvDependencies(doc)...)

	for i := range deps {
		deps[i].SourceFile = path
	}

	return &models.PackageFile{Path: path, Deps: deps}, nil
}

// ExtractPackageFile extracts dependencies from pyproject.toml content using
// the default declaration pattern. packageFile is recorded on each dependency.
func ExtractPackageFile(content []byte, packageFile string) (*models.PackageFile, error) {
	return NewPyProjectParser().Parse(packageFile, content)
}

// IsParseError reports whether err was returned for malformed pyproject.toml content.
func IsParseError(err error) bool {
	var builder *errbuilder.ErrBuilder
	if !errors.As(err, &builder) {
		return false
	}
	return errbuilder.CodeOf(err) == errbuilder.CodeInvalidArgument &&
		strings.HasPrefix(builder.Msg, parseErrorPrefix)
}

func decode(content []byte) (*document, error) {
	var doc document
	meta, err := toml.Decode(string(content), &doc.pyproject)
	if err != nil {
		msg := parseErrorPrefix
		var perr toml.ParseError
		if errors.As(err, &perr) {
			msg = fmt.Sprintf("%s: line %d: %s", parseErrorPrefix, perr.Position.Line, perr.Message)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(msg).
			WithCause(err)
	}
	doc.keys = meta.Keys()
	doc.src = string(content)
	doc.offsets = keyOffsets(doc.src)
	doc.cursor = make(map[string]int)
	return &doc, nil
}

func (p *PyProjectParser) extractBuildSystemRequires(doc *document) []models.Dependency {
	return p.toDependencies(doc, doc.BuildSystem.Requires, models.DepTypeBuildSystem, "build-system", "requires")
}

func (p *PyProjectParser) extractProjectDependencies(doc *document) []models.Dependency {
	return p.toDependencies(doc, doc.Project.Dependencies, models.DepTypeProject, "project", "dependencies")
}

func (p *PyProjectParser) extractOptionalDependencies(doc *document) []models.Dependency {
	groups := doc.Project.OptionalDependencies
	if len(groups) == 0 {
		return nil
	}

	var deps []models.Dependency
	for _, group := range orderedNames(doc.keys, groups, "project", "optional-dependencies") {
		deps = append(deps, p.toDependencies(doc, groups[group], models.OptionalGroupDepType(group),
			"project", "optional-dependencies", group)...)
	}
	return deps
}

func (p *PyProjectParser) extractHatchEnvDependencies(doc *document) []models.Dependency {
	envs := doc.Tool.Hatch.Envs
	if len(envs) == 0 {
		return nil
	}

	var deps []models.Dependency
	for _, env := range orderedNames(doc.keys, envs, "tool", "hatch", "envs") {
		// Environments without a dependency list only configure scripts or features.
		if envs[env].Dependencies == nil {
			continue
		}
		deps = append(deps, p.toDependencies(doc, envs[env].Dependencies, models.HatchEnvDepType(env),
			"tool", "hatch", "envs", env, "dependencies")...)
	}
	return deps
}

// toDependencies converts the declarations stored under key. Each record's
// line is looked up after the key's assignment in the source text.
func (p *PyProjectParser) toDependencies(doc *document, decls []string, depType string, key ...string) []models.Dependency {
	if len(decls) == 0 {
		return nil
	}
	deps := make([]models.Dependency, 0, len(decls))
	for _, decl := range decls {
		dep := p.toDependency(decl, depType)
		dep.Line = doc.locate(decl, key)
		deps = append(deps, dep)
	}
	return deps
}

// toDependency keeps declarations that do not match the grammar so callers
// can report them; Name and CurrentValue stay empty in that case.
func (p *PyProjectParser) toDependency(decl string, depType string) models.Dependency {
	name, spec, _ := p.pattern.Match(decl)
	return models.Dependency{
		Name:         name,
		CurrentValue: spec,
		Datasource:   models.DatasourcePyPI,
		Versioning:   versioning.ID,
		DepType:      depType,
		Raw:          decl,
	}
}

// orderedNames returns the keys of table in the order they appear under
// prefix in the document. Keys the decoder did not report follow in lexical order.
func orderedNames[V any](keys []toml.Key, table map[string]V, prefix ...string) []string {
	names := make([]string, 0, len(table))
	seen := make(map[string]bool, len(table))

	for _, key := range keys {
		if len(key) <= len(prefix) || !hasPrefix(key, prefix) {
			continue
		}
		name := key[len(prefix)]
		if _, ok := table[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	var rest []string
	for name := range table {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func hasPrefix(key toml.Key, prefix []string) bool {
	for i, part := range prefix {
		if key[i] != part {
			return false
		}
	}
	return true
}

// keySegment matches one bare or quoted TOML key part.
const keySegment = `(?:[A-Za-z0-9_-]+|"[^"]*"|'[^']*')`

var (
	tableHeader = regexp.MustCompile(`^\[\[?\s*(` + keySegment + `(?:\s*\.\s*` + keySegment + `)*)\s*\]\]?`)
	assignment  = regexp.MustCompile(`^(` + keySegment + `(?:\s*\.\s*` + keySegment + `)*)\s*=`)
	segment     = regexp.MustCompile(keySegment)
)

// keyOffsets maps every dotted key path assigned in src to the byte offset
// just past its "=" (or past the header line for tables). Quoted array
// elements are never taken for keys because no "=" follows them.
func keyOffsets(src string) map[string]int {
	offsets := make(map[string]int)
	var table []string
	pos := 0
	for _, line := range strings.SplitAfter(src, "\n") {
		start := pos
		pos += len(line)
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		trimmed := line[indent:]

		if m := tableHeader.FindStringSubmatch(trimmed); m != nil {
			table = splitKey(m[1])
			offsets[strings.Join(table, ".")] = pos
			continue
		}
		if m := assignment.FindStringSubmatchIndex(trimmed); m != nil {
			path := append(append([]string{}, table...), splitKey(trimmed[m[2]:m[3]])...)
			key := strings.Join(path, ".")
			if _, ok := offsets[key]; !ok {
				offsets[key] = start + indent + m[1]
			}
		}
	}
	return offsets
}

func splitKey(key string) []string {
	parts := segment.FindAllString(key, -1)
	for i, part := range parts {
		parts[i] = strings.Trim(part, `"'`)
	}
	return parts
}

// locate returns the 1-based line of raw's quoted occurrence under key, or 0
// when it cannot be found. Keys written inline under a parent table fall back
// to the nearest assigned ancestor. Repeated declarations under the same key
// resolve to successive occurrences.
func (d *document) locate(raw string, key []string) int {
	path := strings.Join(key, ".")
	from, ok := d.cursor[path]
	if !ok {
		for i := len(key); i > 0; i-- {
			if off, found := d.offsets[strings.Join(key[:i], ".")]; found {
				from = off
				break
			}
		}
	}

	idx, width := indexQuoted(d.src[from:], raw)
	if idx < 0 {
		return 0
	}
	pos := from + idx
	d.cursor[path] = pos + width
	return strings.Count(d.src[:pos], "\n") + 1
}

func indexQuoted(s string, raw string) (int, int) {
	best, width := -1, 0
	for _, quote := range []string{`"`, `'`} {
		needle := quote + raw + quote
		if i := strings.Index(s, needle); i >= 0 && (best < 0 || i < best) {
			best, width = i, len(needle)
		}
	}
	return best, width
}
