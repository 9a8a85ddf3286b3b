package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// ErrMissingFile is returned when a required local input file does not exist.
var ErrMissingFile = errors.New("file does not exist")

// ReadLines returns the whitespace-trimmed lines of a file.
//
// Blank lines and lines starting with "#" are skipped.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrMissingFile, "%s", path)
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close() // nolint: gosec
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, errors.WithStack(scanner.Err())
}
