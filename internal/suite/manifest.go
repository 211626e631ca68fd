// Package suite loads conformance suite manifests.
//
// A manifest is a YAML file naming a set of scripts and the outcome each is
// expected to have:
//
//	name: harmony
//	description: object literal computed property names
//	timeout: 10s
//	scripts:
//	  - path: computed-property-name.js
//	  - path: broken.js
//	    expect: fail
//	    code: ASSERTION_MISMATCH
//
// Script paths are relative to the manifest.
package suite

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jsconform/internal/harness"
)

// Expected script outcomes.
const (
	ExpectPass = "pass"
	ExpectFail = "fail"
)

// Suite is a parsed manifest.
type Suite struct {
	// Name identifies the suite in reports.
	Name string `yaml:"name"`

	// Description says what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Timeout bounds each script run, as a time.ParseDuration string.
	// Empty means no limit beyond the caller's context.
	Timeout string `yaml:"timeout,omitempty"`

	// Scripts lists the scripts to run, in order.
	Scripts []Script `yaml:"scripts"`

	// Dir is the manifest's directory. Set by Load, not read from YAML.
	Dir string `yaml:"-"`
}

// Script is one manifest entry.
type Script struct {
	// Path to the script, relative to the manifest.
	Path string `yaml:"path"`

	// Expect is "pass" (default) or "fail".
	Expect string `yaml:"expect,omitempty"`

	// Code is the failure code an expected failure must report.
	Code string `yaml:"code,omitempty"`
}

// Name returns the script's base name, used in reports and golden files.
func (s Script) Name() string {
	return filepath.Base(s.Path)
}

// ExpectsPass reports whether the script should pass.
func (s Script) ExpectsPass() bool {
	return s.Expect != ExpectFail
}

// ExpectedCode returns the failure code for an expected failure.
func (s Script) ExpectedCode() harness.ErrorCode {
	return harness.ErrorCode(s.Code)
}

// Load reads, parses and validates the manifest at path.
// Unknown fields are rejected.
func Load(fs afero.Fs, path string) (*Suite, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates manifest YAML.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range s.Scripts {
		if s.Scripts[i].Expect == "" {
			s.Scripts[i].Expect = ExpectPass
		}
	}

	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &s, nil
}

func validate(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Scripts) == 0 {
		return fmt.Errorf("scripts list is required and must be non-empty")
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return err
	}

	seen := make(map[string]int, len(s.Scripts))
	for i, sc := range s.Scripts {
		if sc.Path == "" {
			return fmt.Errorf("scripts[%d]: path is required", i)
		}
		if filepath.Ext(sc.Path) != ".js" {
			return fmt.Errorf("scripts[%d]: path %q must name a .js file", i, sc.Path)
		}
		if j, dup := seen[sc.Name()]; dup {
			return fmt.Errorf("scripts[%d]: %s duplicates scripts[%d]", i, sc.Name(), j)
		}
		seen[sc.Name()] = i

		switch sc.Expect {
		case ExpectPass:
			if sc.Code != "" {
				return fmt.Errorf("scripts[%d]: code is only allowed with expect: fail", i)
			}
		case ExpectFail:
			if sc.Code == "" {
				return fmt.Errorf("scripts[%d]: code is required with expect: fail", i)
			}
			if _, ok := harness.ParseCode(sc.Code); !ok {
				return fmt.Errorf("scripts[%d]: unknown code %q", i, sc.Code)
			}
		default:
			return fmt.Errorf("scripts[%d]: expect must be %q or %q, got %q", i, ExpectPass, ExpectFail, sc.Expect)
		}
	}
	return nil
}

// TimeoutDuration parses Timeout. It returns zero when no timeout is set.
func (s *Suite) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must be non-negative, got %s", s.Timeout)
	}
	return d, nil
}

// Path resolves a script path against the manifest directory.
func (s *Suite) Path(sc Script) string {
	if filepath.IsAbs(sc.Path) || s.Dir == "" {
		return sc.Path
	}
	return filepath.Join(s.Dir, sc.Path)
}

// GoldenPath returns where the golden snapshot of sc lives:
// golden/<name without extension>.golden next to the manifest.
func (s *Suite) GoldenPath(sc Script) string {
	name := strings.TrimSuffix(sc.Name(), filepath.Ext(sc.Name()))
	return filepath.Join(s.Dir, "golden", name+".golden")
}

// Filter returns the scripts whose base name matches the glob pattern.
// An empty pattern matches everything.
func (s *Suite) Filter(pattern string) ([]Script, error) {
	if pattern == "" {
		return s.Scripts, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("filter %q: %w", pattern, err)
	}

	var out []Script
	for _, sc := range s.Scripts {
		if ok, _ := filepath.Match(pattern, sc.Name()); ok {
			out = append(out, sc)
		}
	}
	return out, nil
}
