// Package testcase holds query regression cases, identifier matching and run reports.
package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
)

// Case is one (query, expected identifier) pair. ExpectedPath uses whatever
// identifier scheme the corpus author chose: URL, page id, or document id.
type Case struct {
	Query        string `json:"query" yaml:"query"`
	ExpectedPath string `json:"expectedPath" yaml:"expectedPath"`
}

// Load decodes a JSON array of cases. Anything else is a configuration error.
func Load(r io.Reader) ([]Case, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read test cases: %w", domain.ErrConfiguration, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.Configurationf("test cases must be a JSON array")
	}
	var cases []Case
	if err := json.Unmarshal(trimmed, &cases); err != nil {
		return nil, fmt.Errorf("%w: decode test cases: %w", domain.ErrConfiguration, err)
	}
	if err := Check(cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// LoadFile reads a test-case JSON file.
func LoadFile(path string) ([]Case, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open test cases: %w", domain.ErrConfiguration, err)
	}
	defer f.Close()
	return Load(f)
}

// Check rejects an empty list and cases without a query or expected identifier.
func Check(cases []Case) error {
	if len(cases) == 0 {
		return domain.Configurationf("no test cases")
	}
	for i, c := range cases {
		if c.Query == "" {
			return domain.Configurationf("test case %d: query is required", i)
		}
		if c.ExpectedPath == "" {
			return domain.Configurationf("test case %d: expectedPath is required", i)
		}
	}
	return nil
}
