package suite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsconform/internal/harness"
)

func writeSuite(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoad_ValidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSuite(t, fs, "suites/harmony/suite.yaml", `
name: harmony
description: computed property names
timeout: 5s
scripts:
  - path: computed-property-name.js
  - path: broken.js
    expect: fail
    code: ASSERTION_MISMATCH
`)

	s, err := Load(fs, "suites/harmony/suite.yaml")
	require.NoError(t, err)

	assert.Equal(t, "harmony", s.Name)
	assert.Equal(t, "computed property names", s.Description)
	assert.Equal(t, "suites/harmony", s.Dir)
	require.Len(t, s.Scripts, 2)

	first := s.Scripts[0]
	assert.Equal(t, ExpectPass, first.Expect, "expect defaults to pass")
	assert.True(t, first.ExpectsPass())
	assert.Equal(t, filepath.Join("suites/harmony", "computed-property-name.js"), s.Path(first))
	assert.Equal(t, filepath.Join("suites/harmony", "golden", "computed-property-name.golden"), s.GoldenPath(first))

	second := s.Scripts[1]
	assert.False(t, second.ExpectsPass())
	assert.Equal(t, harness.CodeMismatch, second.ExpectedCode())

	d, err := s.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read suite file")
}

func TestLoad_ShippedHarmonySuite(t *testing.T) {
	s, err := Load(afero.NewOsFs(), "../../conformance/harmony/suite.yaml")
	require.NoError(t, err)

	assert.Equal(t, "harmony", s.Name)
	require.Len(t, s.Scripts, 1)

	exists, err := afero.Exists(afero.NewOsFs(), s.Path(s.Scripts[0]))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\nscripts:\n  - path: a.js\nscritps: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "scripts:\n  - path: a.js\n",
			wantErr: "name is required",
		},
		{
			name:    "no scripts",
			content: "name: x\nscripts: []\n",
			wantErr: "scripts list is required",
		},
		{
			name:    "missing path",
			content: "name: x\nscripts:\n  - expect: pass\n",
			wantErr: "scripts[0]: path is required",
		},
		{
			name:    "path without .js extension",
			content: "name: x\nscripts:\n  - path: a.ts\n",
			wantErr: `scripts[0]: path "a.ts" must name a .js file`,
		},
		{
			name:    "bad expect",
			content: "name: x\nscripts:\n  - path: a.js\n    expect: maybe\n",
			wantErr: `expect must be "pass" or "fail"`,
		},
		{
			name:    "fail without code",
			content: "name: x\nscripts:\n  - path: a.js\n    expect: fail\n",
			wantErr: "code is required",
		},
		{
			name:    "unknown code",
			content: "name: x\nscripts:\n  - path: a.js\n    expect: fail\n    code: NOPE\n",
			wantErr: `unknown code "NOPE"`,
		},
		{
			name:    "code on pass",
			content: "name: x\nscripts:\n  - path: a.js\n    code: WRONG_ERROR_KIND\n",
			wantErr: "code is only allowed",
		},
		{
			name:    "duplicate script",
			content: "name: x\nscripts:\n  - path: a.js\n  - path: sub/a.js\n",
			wantErr: "duplicates scripts[0]",
		},
		{
			name:    "bad timeout",
			content: "name: x\ntimeout: soon\nscripts:\n  - path: a.js\n",
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeoutDuration_Unset(t *testing.T) {
	d, err := (&Suite{}).TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestPath_Absolute(t *testing.T) {
	s := &Suite{Dir: "suites"}
	abs := filepath.Join(string(filepath.Separator), "tmp", "x.js")
	assert.Equal(t, abs, s.Path(Script{Path: abs}))
}

func TestFilter(t *testing.T) {
	s := &Suite{Scripts: []Script{
		{Path: "computed-property-name.js"},
		{Path: "harmony/computed-accessor.js"},
		{Path: "object-literal.js"},
	}}

	all, err := s.Filter("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	computed, err := s.Filter("computed-*")
	require.NoError(t, err)
	require.Len(t, computed, 2)
	assert.Equal(t, "harmony/computed-accessor.js", computed[1].Path)

	none, err := s.Filter("nothing*")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Filter("[")
	assert.Error(t, err)
}
