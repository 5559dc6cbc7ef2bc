package lineedit

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// readHistory returns the last limit non-blank lines of path.
func readHistory(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = appendBounded(lines, line, limit)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// writeHistory replaces path with lines, one per line. The file is written
// next to the destination and renamed into place.
func writeHistory(path string, lines []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func appendBounded(lines []string, line string, limit int) []string {
	lines = append(lines, line)
	if limit > 0 && len(lines) > limit {
		lines = append(lines[:0], lines[len(lines)-limit:]...)
	}
	return lines
}
