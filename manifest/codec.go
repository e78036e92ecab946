package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	sectionVersion = "[version]"
	sectionFiles   = "[files]"
)

// Parse reads a manifest from r.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{files: make(map[string]Entry)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	section := ""
	lineNo := 0
	sawVersion := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = strings.TrimSpace(line)
			if section != sectionVersion && section != sectionFiles {
				return nil, fmt.Errorf("%w: line %d: unknown section %q", ErrMalformed, lineNo, section)
			}
			continue
		}
		switch section {
		case sectionVersion:
			if sawVersion {
				return nil, fmt.Errorf("%w: line %d: duplicate version line", ErrMalformed, lineNo)
			}
			if err := m.parseVersion(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			sawVersion = true
		case sectionFiles:
			path, e, err := ParseLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if _, dup := m.files[path]; dup {
				return nil, fmt.Errorf("%w: line %d: duplicate path %s", ErrMalformed, lineNo, path)
			}
			m.files[path] = e
		default:
			return nil, fmt.Errorf("%w: line %d: content outside of a section", ErrMalformed, lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawVersion {
		return nil, fmt.Errorf("%w: missing version line", ErrMalformed)
	}
	return m, nil
}

func (m *Manifest) parseVersion(line string) error {
	numText, name, _ := strings.Cut(strings.TrimSpace(line), " ")
	num, err := strconv.ParseUint(numText, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: version %q", ErrMalformed, numText)
	}
	m.Version = uint32(num)
	m.Name = strings.TrimSpace(name)
	return nil
}

// Load reads the manifest stored at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // manifest path is operator supplied
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadOrEmpty loads the manifest at path, returning nil without error when
// no regular file exists there.
func LoadOrEmpty(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return Load(path)
}

// WriteTo writes the text form of m to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) error {
		c, err := bw.WriteString(s)
		n += int64(c)
		return err
	}

	if err := write(sectionVersion + "\n"); err != nil {
		return n, err
	}
	if err := write(strconv.FormatUint(uint64(m.Version), 10) + " " + m.Name + "\n"); err != nil {
		return n, err
	}
	if err := write(sectionFiles + "\n"); err != nil {
		return n, err
	}
	for path, e := range m.All() {
		if err := write(e.Line(path) + "\n"); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Save atomically replaces the file at path with the text form of m.
func (m *Manifest) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := m.WriteTo(tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
