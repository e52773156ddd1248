package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// parseFields turns repeated --field key=value flags into a value map. The
// value may itself contain '='; a later key overrides an earlier one.
func parseFields(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", p)
		}
		values[k] = v
	}
	return values, nil
}

// readSecret reads one line from r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
