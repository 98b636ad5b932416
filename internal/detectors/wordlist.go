package detectors

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyWordlist is returned when a wordlist holds no tokens.
var ErrEmptyWordlist = errors.New("wordlist is empty")

// LoadWordlist reads whitespace-delimited tokens from path.
func LoadWordlist(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}
	words := strings.Fields(string(b))
	if len(words) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyWordlist)
	}
	return words, nil
}
