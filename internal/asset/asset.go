// Package asset stages local directories (Lambda code, layer code, site
// contents) as content-addressed zip archives.
//
// The hash covers sorted relative paths and file contents only, so the same
// tree always produces the same hash, object key and archive bytes.
package asset

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ManifestFile is the name of the manifest written next to staged archives.
const ManifestFile = "manifest.json"

// zipEpoch is the modification time stamped on every archive entry.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrNotDirectory is returned when an asset source is missing or not a directory.
var ErrNotDirectory = errors.New("asset source is not a directory")

// ErrNotExecutable is returned when an asset lacks a required executable.
var ErrNotExecutable = errors.New("missing executable")

// Asset is one staged directory.
type Asset struct {
	ID        string `json:"id"`
	SourceDir string `json:"source_dir"`
	Hash      string `json:"hash"`
	// ObjectKey is the key the archive is published under.
	ObjectKey string `json:"object_key"`
	// ZipPath is the staged archive on disk.
	ZipPath string `json:"zip_path"`
}

// File is one file of a directory, as uploaded to a bucket.
type File struct {
	// Key is the slash-separated path relative to the directory root.
	Key         string
	Path        string
	Size        int64
	ContentType string
}

// Files lists the regular files of dir in lexical order.
func Files(dir string) ([]File, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		files = append(files, File{
			Key:         key,
			Path:        p,
			Size:        info.Size(),
			ContentType: ContentType(key),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// ContentType guesses the MIME type of a key from its extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Hash returns the hex sha256 of dir's relative paths and contents.
func Hash(dir string) (string, error) {
	files, err := Files(dir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%d\x00", f.Key, f.Size)
		if err := copyFile(h, f.Path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Zip writes a deterministic archive of dir to w. Executable files keep
// mode 0755; everything else is 0644.
func Zip(dir string, w io.Writer) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			return err
		}

		hdr := &zip.FileHeader{
			Name:     f.Key,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		}
		mode := fs.FileMode(0o644)
		if info.Mode()&0o111 != 0 {
			mode = 0o755
		}
		hdr.SetMode(mode)

		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip %s: %w", f.Key, err)
		}
		if err := copyFile(entry, f.Path); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Stage hashes dir and writes <outDir>/asset.<hash>.zip unless an archive
// with that hash is already staged.
func Stage(outDir, id, dir string) (Asset, error) {
	hash, err := Hash(dir)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %s: %w", id, err)
	}

	a := Asset{
		ID:        id,
		SourceDir: dir,
		Hash:      hash,
		ObjectKey: hash + ".zip",
		ZipPath:   filepath.Join(outDir, "asset."+hash+".zip"),
	}

	if _, err := os.Stat(a.ZipPath); err == nil {
		return a, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Asset{}, err
	}

	tmp, err := os.CreateTemp(outDir, ".asset-*.zip")
	if err != nil {
		return Asset{}, err
	}
	defer os.Remove(tmp.Name())

	if err := Zip(dir, tmp); err != nil {
		tmp.Close()
		return Asset{}, fmt.Errorf("asset %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return Asset{}, err
	}
	if err := os.Rename(tmp.Name(), a.ZipPath); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// Manifest lists the staged assets of one synth run.
type Manifest struct {
	Version string  `json:"version"`
	Assets  []Asset `json:"assets"`
}

// WriteManifest writes <outDir>/manifest.json.
func WriteManifest(outDir string, assets []Asset) error {
	data, err := json.MarshalIndent(Manifest{Version: "1", Assets: assets}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, ManifestFile), append(data, '\n'), 0o644)
}

// ReadManifest reads <outDir>/manifest.json.
func ReadManifest(outDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// RequireExecutable checks that dir holds name as a regular file with an
// execute bit set.
func RequireExecutable(dir, name string) error {
	if err := checkDir(dir); err != nil {
		return err
	}
	p := filepath.Join(dir, name)
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", p, ErrNotExecutable, err)
	}
	if !info.Mode().IsRegular() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s: %w", p, ErrNotExecutable)
	}
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", dir, ErrNotDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}

func copyFile(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", p, err)
	}
	return nil
}
