package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newScanner(t *testing.T, cfg *models.Config) *Scanner {
	t.Helper()
	if !cfg.NoCache && cfg.CacheDir == "" {
		cfg.CacheDir = t.TempDir()
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func filePaths(r *models.ScanResult) []string {
	var out []string
	for _, f := range r.Files {
		out = append(out, f.Path)
	}
	return out
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\ndependencies = [\"requests>=2\"]\n")
	writeFile(t, filepath.Join(root, "svc", "pyproject.toml"), "[build-system]\nrequires = [\"hatchling\"]\n")
	writeFile(t, filepath.Join(root, ".venv", "lib", "pyproject.toml"), "[project]\ndependencies = [\"ignored\"]\n")
	writeFile(t, filepath.Join(root, "vendored", "pyproject.toml"), "[project]\ndependencies = [\"ignored\"]\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{root}
	cfg.Exclude = []string{"vendored"}
	s := newScanner(t, cfg)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "pyproject.toml"),
		filepath.Join(root, "svc", "pyproject.toml"),
	}
	if diff := cmp.Diff(want, filePaths(res)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, res.DependencyCount())
	assert.Empty(t, res.Findings)
}

func TestScanReportsUnmatchedDeclarations(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pyproject.toml")
	writeFile(t, path, "[project]\ndependencies = [\n  \"ok>=1\",\n  \"!!!\",\n]\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{path}
	cfg.NoCache = true
	s := newScanner(t, cfg)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)

	f := res.Findings[0]
	assert.Equal(t, models.FindingUnmatched, f.Kind)
	assert.Equal(t, "!!!", f.Dependency.Raw)
	assert.Equal(t, path, f.SourceFile)
	assert.Equal(t, 4, f.Line)
	assert.False(t, f.IsFileLevel())
}

func TestScanReportsTrailingGarbage(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pyproject.toml")
	writeFile(t, path, "[project]\ndependencies = [\"requests 2.0\", \"django>=2,\", \"flask>=2\"]\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{path}
	cfg.NoCache = true
	s := newScanner(t, cfg)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)

	var raws []string
	for _, f := range res.Findings {
		assert.Equal(t, models.FindingUnmatched, f.Kind)
		raws = append(raws, f.Dependency.Raw)
	}
	if diff := cmp.Diff([]string{"requests 2.0", "django>=2,"}, raws); diff != "" {
		t.Fatalf("unexpected findings (-want +got):\n%s", diff)
	}
}

func TestScanValidatesConstraints(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pyproject.toml")
	writeFile(t, path, "[project]\ndependencies = [\"good>=1.0\", \"bad>=foo\", \"plain\"]\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{path}
	cfg.NoCache = true

	res, err := newScanner(t, cfg).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)

	cfg.ValidateConstraints = true
	res, err = newScanner(t, cfg).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, models.FindingInvalidConstraint, res.Findings[0].Kind)
	assert.Equal(t, "bad", res.Findings[0].Dependency.Name)
}

func TestScanParseErrorInWalkBecomesFinding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "pyproject.toml"), "[project\n")
	writeFile(t, filepath.Join(root, "b", "pyproject.toml"), "[project]\ndependencies = [\"x\"]\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{root}
	cfg.NoCache = true

	res, err := newScanner(t, cfg).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, models.FindingParseError, res.Findings[0].Kind)
	assert.True(t, res.Findings[0].IsFileLevel())
	assert.Equal(t, filepath.Join(root, "a", "pyproject.toml"), res.Findings[0].SourceFile)
}

func TestScanExplicitFileParseErrorFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	writeFile(t, path, "[project\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{path}
	cfg.NoCache = true

	res, err := newScanner(t, cfg).Scan(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	if diff := cmp.Diff(errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err)); diff != "" {
		t.Fatalf("unexpected error code (-want +got):\n%s", diff)
	}
}

func TestScanMissingPath(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Paths = []string{filepath.Join(t.TempDir(), "missing")}
	cfg.NoCache = true

	_, err := newScanner(t, cfg).Scan(context.Background())
	require.Error(t, err)
	if diff := cmp.Diff(errbuilder.CodeNotFound, errbuilder.CodeOf(err)); diff != "" {
		t.Fatalf("unexpected error code (-want +got):\n%s", diff)
	}
}

func TestScanUsesCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pyproject.toml")
	writeFile(t, path, "[project]\ndependencies = [\"a\"]\n")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{path}
	cfg.CacheDir = t.TempDir()
	s := newScanner(t, cfg)

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached scan differs (-first +second):\n%s", diff)
	}

	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestScanCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "")

	cfg := models.DefaultConfig()
	cfg.Paths = []string{root}
	cfg.NoCache = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(t, cfg).Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
