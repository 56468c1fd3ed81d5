package asset

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestHash_Deterministic(t *testing.T) {
	files := map[string]string{
		"index.js":          "exports.handler = async () => {}",
		"nodejs/lib/util.js": "module.exports = {}",
	}
	a, err := Hash(makeTree(t, files))
	require.NoError(t, err)
	b, err := Hash(makeTree(t, files))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHash_ChangesWithContentAndPath(t *testing.T) {
	base, err := Hash(makeTree(t, map[string]string{"a.txt": "one"}))
	require.NoError(t, err)

	content, err := Hash(makeTree(t, map[string]string{"a.txt": "two"}))
	require.NoError(t, err)
	renamed, err := Hash(makeTree(t, map[string]string{"b.txt": "one"}))
	require.NoError(t, err)

	assert.NotEqual(t, base, content)
	assert.NotEqual(t, base, renamed)
}

func TestHash_MissingDir(t *testing.T) {
	_, err := Hash(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestZip_Deterministic(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"index.html": "<h1>hi</h1>",
		"error.html": "<h1>forbidden</h1>",
	})
	require.NoError(t, os.Chmod(filepath.Join(dir, "index.html"), 0o755))

	var first, second bytes.Buffer
	require.NoError(t, Zip(dir, &first))
	require.NoError(t, Zip(dir, &second))
	assert.Equal(t, first.Bytes(), second.Bytes())

	zr, err := zip.NewReader(bytes.NewReader(first.Bytes()), int64(first.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "error.html", zr.File[0].Name)
	assert.Equal(t, "index.html", zr.File[1].Name)
	assert.Equal(t, os.FileMode(0o644), zr.File[0].Mode().Perm())
	assert.Equal(t, os.FileMode(0o755), zr.File[1].Mode().Perm())
}

func TestStage(t *testing.T) {
	src := makeTree(t, map[string]string{"bootstrap": "binary"})
	out := t.TempDir()

	a, err := Stage(out, "HelloHandler", src)
	require.NoError(t, err)

	assert.Equal(t, "HelloHandler", a.ID)
	assert.Equal(t, a.Hash+".zip", a.ObjectKey)
	assert.Equal(t, filepath.Join(out, "asset."+a.Hash+".zip"), a.ZipPath)
	assert.FileExists(t, a.ZipPath)

	again, err := Stage(out, "HelloHandler", src)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestManifest_RoundTrip(t *testing.T) {
	out := t.TempDir()
	assets := []Asset{{ID: "SiteContents", Hash: "abc", ObjectKey: "abc.zip"}}

	require.NoError(t, WriteManifest(out, assets))
	m, err := ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "1", m.Version)
	assert.Equal(t, assets, m.Assets)
}

func TestFiles(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"index.html":     "x",
		"css/site.css":   "y",
		"data/blob.zzzq": "z",
	})

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "css/site.css", files[0].Key)
	assert.Contains(t, files[0].ContentType, "text/css")
	assert.Equal(t, "application/octet-stream", files[1].ContentType)
	assert.Contains(t, files[2].ContentType, "text/html")
	assert.EqualValues(t, 1, files[2].Size)
}

func TestRequireExecutable(t *testing.T) {
	dir := makeTree(t, map[string]string{"bootstrap": "binary", "README.md": "docs"})

	err := RequireExecutable(dir, "bootstrap")
	assert.True(t, errors.Is(err, ErrNotExecutable), "mode 0644 is not executable")

	require.NoError(t, os.Chmod(filepath.Join(dir, "bootstrap"), 0o755))
	assert.NoError(t, RequireExecutable(dir, "bootstrap"))

	err = RequireExecutable(dir, "missing")
	assert.True(t, errors.Is(err, ErrNotExecutable))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	assert.True(t, errors.Is(RequireExecutable(dir, "sub"), ErrNotExecutable))

	assert.True(t, errors.Is(RequireExecutable(filepath.Join(dir, "nope"), "bootstrap"), ErrNotDirectory))
}
