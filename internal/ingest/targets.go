package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
)

// Target is one post page to collect.
type Target struct {
	URL      string             `json:"url"`
	Platform normalize.Platform `json:"platform"`
}

// ParseTarget reads one URL list line. A line is either a bare URL, whose
// platform is picked from its host, or "<platform> <url>", which also works
// for file:// snapshots.
func ParseTarget(line string) (Target, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
		p, err := normalize.PlatformFromURL(fields[0])
		if err != nil {
			return Target{}, err
		}
		return Target{URL: fields[0], Platform: p}, nil
	case 2:
		p, err := normalize.ParsePlatform(fields[0])
		if err != nil {
			return Target{}, err
		}
		return Target{URL: fields[1], Platform: p}, nil
	default:
		return Target{}, fmt.Errorf("malformed url line %q", line)
	}
}

// LineError is a URL list line that could not be read as a target.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// ReadTargets reads a URL list. Blank lines and lines starting with # are
// ignored. Lines that are not a valid target are skipped and returned as bad;
// err is only set when the list itself cannot be read.
func ReadTargets(r io.Reader) (targets []Target, bad []LineError, err error) {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, perr := ParseTarget(line)
		if perr != nil {
			bad = append(bad, LineError{Line: n, Text: line, Err: perr})
			continue
		}
		targets = append(targets, t)
	}
	return targets, bad, scanner.Err()
}

// LoadTargets reads the URL list file at path.
func LoadTargets(path string) ([]Target, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadTargets(f)
}
