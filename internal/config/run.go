package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/testcase"
)

// DefaultRunDir is where `ragindex interactive` looks for run configs.
const DefaultRunDir = "validation"

var runExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// RunConfig describes one validation run: an archive, its test cases and
// optional search overrides. YAML or JSON.
type RunConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Archive     string         `yaml:"archive"`
	TestCases   TestCases      `yaml:"test_cases"`
	Search      SearchOverride `yaml:"search"`

	// Path is the file the run was loaded from.
	Path string `yaml:"-"`
}

// TestCases is either a path to a JSON cases file or an inline list.
type TestCases struct {
	Path   string
	Inline []testcase.Case
}

// UnmarshalYAML accepts a scalar path or a sequence of cases.
func (t *TestCases) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&t.Path)
	case yaml.SequenceNode:
		return node.Decode(&t.Inline)
	default:
		return fmt.Errorf("test_cases must be a path or a list, line %d", node.Line)
	}
}

// SearchOverride holds per-run search settings. Absent fields keep the defaults.
type SearchOverride struct {
	Mode       string   `yaml:"mode"`
	Limit      int      `yaml:"limit"`
	Tolerance  *float64 `yaml:"tolerance"`
	Similarity *float64 `yaml:"similarity"`
	Property   string   `yaml:"property"`
	Fusion     string   `yaml:"fusion"`
	Strict     bool     `yaml:"strict"`
}

// Options converts the overrides to search options.
func (s SearchOverride) Options() request.Options {
	return request.Options{
		Mode:       mode.Mode(s.Mode),
		Limit:      s.Limit,
		Tolerance:  s.Tolerance,
		Similarity: s.Similarity,
		Property:   s.Property,
		Fusion:     request.Fusion(s.Fusion),
	}
}

// Matcher returns the identifier matcher for this run.
func (s SearchOverride) Matcher() testcase.Matcher {
	return testcase.Matcher{Strict: s.Strict}
}

// LoadRun reads a run config. Relative paths inside it resolve against its directory.
func LoadRun(path string) (RunConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: read run config: %w", domain.ErrConfiguration, err)
	}
	var rc RunConfig
	// JSON is valid YAML, so one decoder serves both.
	if err := yaml.Unmarshal(expandEnvVars(data), &rc); err != nil {
		return RunConfig{}, fmt.Errorf("%w: parse run config %s: %w", domain.ErrConfiguration, path, err)
	}
	rc.Path = path
	if rc.Name == "" {
		rc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	dir := filepath.Dir(path)
	rc.Archive = resolve(dir, rc.Archive)
	rc.TestCases.Path = resolve(dir, rc.TestCases.Path)

	if err := rc.Validate(); err != nil {
		return RunConfig{}, fmt.Errorf("run config %s: %w", path, err)
	}
	return rc, nil
}

// Validate checks required fields and search overrides.
func (rc RunConfig) Validate() error {
	if rc.Archive == "" {
		return domain.Configurationf("archive is required")
	}
	if rc.TestCases.Path == "" && len(rc.TestCases.Inline) == 0 {
		return domain.Configurationf("test_cases is required")
	}
	return rc.Search.Options().WithDefaults().Validate()
}

// Cases returns the inline cases or loads them from the referenced file.
func (rc RunConfig) Cases() ([]testcase.Case, error) {
	if len(rc.TestCases.Inline) > 0 {
		if err := testcase.Check(rc.TestCases.Inline); err != nil {
			return nil, err
		}
		return rc.TestCases.Inline, nil
	}
	return testcase.LoadFile(rc.TestCases.Path)
}

// ListRuns loads every run config in dir, sorted by file name. Files that fail
// to load are logged and skipped; it fails only when no run config loads.
func ListRuns(dir string, logger *zap.Logger) ([]RunConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list run configs: %w", domain.ErrConfiguration, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !runExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	runs := make([]RunConfig, 0, len(names))
	var lastErr error
	for _, name := range names {
		rc, err := LoadRun(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("Skipping run config", zap.String("file", name), zap.Error(err))
			lastErr = err
			continue
		}
		runs = append(runs, rc)
	}
	if len(runs) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no usable run configs in %s: %w", dir, lastErr)
		}
		return nil, domain.Configurationf("no run configs in %s", dir)
	}
	return runs, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
