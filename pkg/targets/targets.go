// Package targets reads the run's target URL list from a plain text file.
package targets

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Read returns the target URLs from the file at path, one per line. Lines
// that do not start with http are ignored, so the file can carry comments
// and blank separators. A missing file is an error: without targets there
// is nothing to scrape.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target file %s: %w", path, err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("target file %s contains no URLs", path)
	}
	return urls, nil
}
