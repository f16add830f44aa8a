package manifest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// LockEntry is one colon-delimited `name:version:builtin:hash:path`
// record from the lock file (spec §6 "Lock file").
type LockEntry struct {
	Name    string
	Version Version
	Builtin bool
	Hash    string
	Path    string
}

// Lock is the parsed contents of a lock file: the owning package's own
// record, then its dependencies in topological order (spec §6, and
// testable property 7: "the owning package last").
type Lock struct {
	Kind         Kind
	Owner        LockEntry
	Dependencies []LockEntry
}

func ParseLock(r io.Reader) (*Lock, error) {
	l := &Lock{}
	sc := bufio.NewScanner(r)
	section := ""
	lineNo := 0
	haveOwner := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			section = line
			switch section {
			case "@application":
				l.Kind = Application
			case "@library":
				l.Kind = Library
			case "@dependencies":
			default:
				return nil, fmt.Errorf("lock:%d: unknown section %q", lineNo, section)
			}
			continue
		}
		entry, err := parseLockEntry(line, lineNo)
		if err != nil {
			return nil, err
		}
		switch section {
		case "@application", "@library":
			if haveOwner {
				return nil, fmt.Errorf("lock:%d: more than one owner record", lineNo)
			}
			l.Owner, haveOwner = entry, true
		case "@dependencies":
			l.Dependencies = append(l.Dependencies, entry)
		default:
			return nil, fmt.Errorf("lock:%d: record outside any section", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveOwner {
		return nil, fmt.Errorf("lock: missing owner record")
	}
	return l, nil
}

func parseLockEntry(line string, lineNo int) (LockEntry, error) {
	fields := strings.Split(line, ":")
	if len(fields) != 5 {
		return LockEntry{}, fmt.Errorf("lock:%d: record %q does not have 5 colon-delimited fields", lineNo, line)
	}
	v, err := ParseVersion(fields[1])
	if err != nil {
		return LockEntry{}, fmt.Errorf("lock:%d: %w", lineNo, err)
	}
	return LockEntry{
		Name:    fields[0],
		Version: v,
		Builtin: fields[2] == "true",
		Hash:    fields[3],
		Path:    fields[4],
	}, nil
}

func (e LockEntry) render() string {
	return fmt.Sprintf("%s:%s:%t:%s:%s", e.Name, e.Version, e.Builtin, e.Hash, e.Path)
}

func (l *Lock) Render(w io.Writer) error {
	section := "@application"
	if l.Kind == Library {
		section = "@library"
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", section, l.Owner.render()); err != nil {
		return err
	}
	if len(l.Dependencies) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "@dependencies\n"); err != nil {
		return err
	}
	for _, d := range l.Dependencies {
		if _, err := fmt.Fprintf(w, "%s\n", d.render()); err != nil {
			return err
		}
	}
	return nil
}

// HashArchive computes the archive hash recorded in a lock entry. Spec
// §6 names SHA-256 as the reference hash function.
func HashArchive(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
