// Package versioning exposes the PEP 440 version-range grammar and the
// identifiers attached to every extracted Python dependency.
package versioning

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// ID identifies the PEP 440 version ordering and comparison scheme.
const ID = "pep440"

// VersionPattern matches a single PEP 440 version. Alternatives are ordered
// longest first so leftmost-first matching never stops inside a label.
const VersionPattern = `v?` +
	`(?:` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_\.]?(?P<pre_l>alpha|beta|preview|pre|rc|a|b|c)[-_\.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_\.]?(?P<post_l>post|rev|r)[-_\.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_\.]?(?P<dev_l>dev)[-_\.]?(?P<dev_n>[0-9]+)?)?` +
	`)` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?`

// RangePattern matches one comparator clause such as ">=2.0" or "==1.4.*".
// Unparseable versions are still consumed through the legacy alternative,
// which may not begin with another operator character.
const RangePattern = `(?P<operator>===|~=|==|!=|<=|>=|<|>)` +
	`\s*` +
	`(?:` +
	`(?P<version>` + VersionPattern + `)(?P<prefix>\.\*)?` +
	`|` +
	`(?P<legacy>[^,;\s)<>=!~][^,;\s)]*)` +
	`)`

// Validate checks that constraint is a well-formed PEP 440 specifier set.
// An empty constraint means "any version" and is always valid.
func Validate(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	if _, err := pep440.NewSpecifiers(constraint); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid PEP 440 specifier %q", constraint)).
			WithCause(err)
	}
	return nil
}
