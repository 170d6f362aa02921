package authoring

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ManifestName is the file every client loads first.
const ManifestName = "manifestquestions.json"

// GenerateManifest lists every .json file below dir as "questions/<rel>"
// with forward slashes, in walk order. The manifest itself is excluded.
func GenerateManifest(dir string) ([]string, error) {
	entries := []string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") || d.Name() == ManifestName {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		entries = append(entries, path.Join("questions", filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return entries, nil
}

// WriteManifest regenerates dir/manifestquestions.json.
func WriteManifest(dir string) ([]string, error) {
	entries, err := GenerateManifest(dir)
	if err != nil {
		return nil, err
	}
	out, err := encodeIndented(entries)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), out, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return entries, nil
}
