// Package routelist parses the semi-structured lista.txt dump of the
// operator's route directory into a route id -> display name map. The
// transform is deterministic: the same dump always produces the same map.
package routelist

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/gradski-prevoz/tracker/internal/translit"
)

// routeIDPattern finds a route id inside the directory's view URLs
var routeIDPattern = regexp.MustCompile(`linija/(\d+)/prikaz`)

// displayNamePattern matches a line carrying only the display name:
// leading whitespace, one token, optional trailing whitespace.
var displayNamePattern = regexp.MustCompile(`^\s+([^\s\[]+)\s*$`)

// lookahead is how many lines after a route URL the display name may sit
const lookahead = 5

// Parse extracts the route mapping from a lista.txt dump. Display names
// are transliterated to Latin; the first name found for a route id wins.
func Parse(r io.Reader) (map[string]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read route list: %w", err)
	}

	mapping := make(map[string]string)
	currentRouteID := ""

	for i, line := range lines {
		if m := routeIDPattern.FindStringSubmatch(line); m != nil {
			currentRouteID = m[1]
		}

		if currentRouteID == "" {
			continue
		}
		if _, done := mapping[currentRouteID]; done {
			continue
		}

		// The display name follows the URL line within a few lines
		for j := 0; j < lookahead && i+j < len(lines); j++ {
			if m := displayNamePattern.FindStringSubmatch(lines[i+j]); m != nil {
				mapping[currentRouteID] = translit.Latin(m[1])
				currentRouteID = ""
				break
			}
		}
	}

	return mapping, nil
}
