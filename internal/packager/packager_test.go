package packager

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPackager(t *testing.T) (*Packager, string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "lambda")
	require.NoError(t, os.MkdirAll(filepath.Join(source, "handlers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "index.py"), []byte("def handler(event, context): pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "handlers", "iam.py"), []byte("# iam findings\n"), 0o644))

	p := NewWithPaths(
		source,
		filepath.Join(root, "build", "staging"),
		filepath.Join(root, "build", "access-review.zip"),
	)
	return p, source
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() {
		_ = reader.Close()
	}()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestPackagePreservesRelativePaths(t *testing.T) {
	p, _ := newTestPackager(t)

	path, err := p.Package(context.Background())
	require.NoError(t, err)

	names := archiveNames(t, path)
	assert.Equal(t, []string{"handlers/", "handlers/iam.py", "index.py"}, names)
}

func TestPackageIsIdempotent(t *testing.T) {
	p, _ := newTestPackager(t)
	ctx := context.Background()

	path, err := p.Package(ctx)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = p.Package(ctx)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repackaging an unchanged tree must be byte-identical")
}

func TestPackageDiscardsStaleStaging(t *testing.T) {
	p, _ := newTestPackager(t)
	ctx := context.Background()

	// Simulate leftovers from a prior run.
	require.NoError(t, os.MkdirAll(p.stagingDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.stagingDir, "stale.pyc"), []byte("old"), 0o644))

	path, err := p.Package(ctx)
	require.NoError(t, err)

	names := archiveNames(t, path)
	assert.NotContains(t, names, "stale.pyc")
}

func TestPackageOverwritesPriorArchive(t *testing.T) {
	p, source := newTestPackager(t)
	ctx := context.Background()

	_, err := p.Package(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(source, "extra.py"), []byte("# new\n"), 0o644))
	path, err := p.Package(ctx)
	require.NoError(t, err)

	assert.Contains(t, archiveNames(t, path), "extra.py")
}

func TestPackageMissingSourceDir(t *testing.T) {
	root := t.TempDir()
	p := NewWithPaths(
		filepath.Join(root, "does-not-exist"),
		filepath.Join(root, "staging"),
		filepath.Join(root, "out.zip"),
	)

	_, err := p.Package(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}
