// Package banlist reads the flat ban source: one profile id per line, where
// only the leading integer counts and anything after it is a comment.
package banlist

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

var leadingID = regexp.MustCompile(`^\d+`)

// Load returns the set of banned profile ids. An empty path yields an empty
// set; lines without a leading integer are ignored.
func Load(path string) (map[int64]bool, error) {
	banned := make(map[int64]bool)
	if path == "" {
		return banned, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bans file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := leadingID.FindString(scanner.Text())
		if m == "" {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(m, "%d", &id); err == nil {
			banned[id] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bans file: %w", err)
	}
	return banned, nil
}
