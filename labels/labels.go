// Package labels - class label files for detection models.
package labels

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Unknown is returned for class ids without a label.
const Unknown = "unknown"

// Set maps class ids to human-readable names.
type Set struct {
	names []string
}

// NewSet builds a Set from an in-memory name list.
func NewSet(names []string) *Set {
	return &Set{names: names}
}

// Load reads one label per line from the given file, skipping blank lines.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening label file %s", path)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading label file %s", path)
	}

	return &Set{names: names}, nil
}

// Discover looks for a label file in a model directory, trying the Darknet
// convention obj.names first, then labels.txt. A missing file is not an
// error; detection still works, results just carry "unknown" labels.
func Discover(dir string) (*Set, error) {
	for _, name := range []string{"obj.names", "labels.txt"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return &Set{}, nil
}

// Get returns the label for a class id, or Unknown when out of range.
func (s *Set) Get(id int) string {
	if s == nil || id < 0 || id >= len(s.names) {
		return Unknown
	}
	return s.names[id]
}

// Len returns the number of labels.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
