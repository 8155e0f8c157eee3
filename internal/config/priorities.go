package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadPriorities reads a priority file of "name level" lines.
// Blank lines, # comments, and lines whose level is not an integer are skipped.
func LoadPriorities(path string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open priority file: %w", err)
	}
	defer file.Close()

	priorities := make(map[string]int)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		level, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		priorities[fields[0]] = level
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read priority file: %w", err)
	}
	return priorities, nil
}
