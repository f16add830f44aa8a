// Package manifest parses and renders the line-oriented manifest and
// lock file formats of spec §6. The section/key-value scanning style
// is grounded on the teacher's own lexer (hand-rolled rune scanning
// over a bufio.Scanner), generalised from a tokenizer for the source
// language to a tokenizer for this much smaller, line-oriented grammar.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes an application workspace from a library workspace.
type Kind int

const (
	Application Kind = iota
	Library
)

func (k Kind) String() string {
	if k == Application {
		return "application"
	}
	return "library"
}

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Version is the MAJOR.MINOR.PATCH triple, ordered lexicographically
// on the integer triple per spec §6 "Version ordering".
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less implements spec §6's lexicographic-on-integer-triple ordering.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("manifest: malformed version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) > 1 && p[0] == '0' {
			return Version{}, fmt.Errorf("manifest: version %q has a leading zero", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("manifest: version %q is not numeric", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Dependency is one `@dependencies` entry; Version is the zero value
// when the manifest line named no version.
type Dependency struct {
	Name    string
	Version Version
	HasVer  bool
}

// Manifest is the parsed contents of a nemesis.manifest file.
type Manifest struct {
	Kind         Kind
	Name         string
	Version      Version
	Builtin      bool
	Dependencies []Dependency
}

// Parse reads a manifest per spec §6: section headers `@application`,
// `@library`, or `@dependencies`; inside a section, `key value` pairs;
// `#` starts a line comment.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	sc := bufio.NewScanner(r)
	section := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			section = line
			switch section {
			case "@application":
				m.Kind = Application
			case "@library":
				m.Kind = Library
			case "@dependencies":
			default:
				return nil, fmt.Errorf("manifest:%d: unknown section %q", lineNo, section)
			}
			continue
		}
		switch section {
		case "@application", "@library":
			if err := parseKeyValue(m, line, lineNo); err != nil {
				return nil, err
			}
		case "@dependencies":
			dep, err := parseDependency(line, lineNo)
			if err != nil {
				return nil, err
			}
			m.Dependencies = append(m.Dependencies, dep)
		default:
			return nil, fmt.Errorf("manifest:%d: key-value pair outside any section", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !nameRE.MatchString(m.Name) {
		return nil, fmt.Errorf("manifest: name %q does not match %s", m.Name, nameRE.String())
	}
	return m, nil
}

func stripComment(line string) string {
	inQuote := false
	for i, r := range line {
		if r == '"' {
			inQuote = !inQuote
		}
		if r == '#' && !inQuote {
			return line[:i]
		}
	}
	return line
}

func parseKeyValue(m *Manifest, line string, lineNo int) error {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 {
		return fmt.Errorf("manifest:%d: malformed key-value pair %q", lineNo, line)
	}
	key, val := fields[0], unquote(strings.TrimSpace(fields[1]))
	switch key {
	case "name":
		m.Name = val
	case "version":
		v, err := ParseVersion(val)
		if err != nil {
			return fmt.Errorf("manifest:%d: %w", lineNo, err)
		}
		m.Version = v
	case "builtin":
		m.Builtin = val == "true"
	default:
		return fmt.Errorf("manifest:%d: unrecognised key %q", lineNo, key)
	}
	return nil
}

func parseDependency(line string, lineNo int) (Dependency, error) {
	fields := strings.SplitN(line, " ", 2)
	dep := Dependency{Name: unquote(fields[0])}
	if len(fields) == 2 {
		v, err := ParseVersion(unquote(strings.TrimSpace(fields[1])))
		if err != nil {
			return Dependency{}, fmt.Errorf("manifest:%d: %w", lineNo, err)
		}
		dep.Version, dep.HasVer = v, true
	}
	return dep, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Render writes m back out in the manifest's own syntax.
func (m *Manifest) Render(w io.Writer) error {
	section := "@application"
	if m.Kind == Library {
		section = "@library"
	}
	if _, err := fmt.Fprintf(w, "%s\n    name \"%s\"\n    version \"%s\"\n    builtin %t\n",
		section, m.Name, m.Version, m.Builtin); err != nil {
		return err
	}
	if len(m.Dependencies) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n@dependencies\n"); err != nil {
		return err
	}
	for _, d := range m.Dependencies {
		if d.HasVer {
			if _, err := fmt.Fprintf(w, "    %s \"%s\"\n", d.Name, d.Version); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "    %s\n", d.Name); err != nil {
			return err
		}
	}
	return nil
}
