package registry

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultClassNames are the infrastructure defect classes the bundled model
// was trained on, in class-id order.
func DefaultClassNames() []string {
	return []string{
		"crack",
		"pothole",
		"corrosion",
		"spalling",
		"exposed_rebar",
		"water_damage",
	}
}

// LoadClassNames reads a labels file with one class name per line, in
// class-id order. Blank lines and lines starting with '#' are skipped.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("labels file %s contains no class names", path)
	}

	return names, nil
}
