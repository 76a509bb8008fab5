package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// ErrNoManifest is returned by Uninstall when nothing was exported to the
// directory.
var ErrNoManifest = errors.New("no export manifest")

// ManifestEntry is one written file.
type ManifestEntry struct {
	Path     string `json:"path"` // slash separated, relative to the output directory
	Kind     string `json:"kind"`
	Level    int    `json:"level"`
	Size     int64  `json:"size"`
	ExportID string `json:"export_id"`
}

// Manifest lists the files exported to an output directory across runs.
type Manifest struct {
	ID      string          `json:"id"` // id of the latest export
	Updated time.Time       `json:"updated"`
	Files   []ManifestEntry `json:"files"`
}

// ReadManifest loads the manifest of outDir.
func ReadManifest(outDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, errors.Wrap(err, "reading manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decoding manifest")
	}
	return &m, nil
}

// merge replaces entries with the same path and keeps the list sorted.
func (m *Manifest) merge(entries []ManifestEntry) {
	byPath := make(map[string]int, len(m.Files))
	for i, e := range m.Files {
		byPath[e.Path] = i
	}
	for _, e := range entries {
		if i, ok := byPath[e.Path]; ok {
			m.Files[i] = e
			continue
		}
		byPath[e.Path] = len(m.Files)
		m.Files = append(m.Files, e)
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
}

func (m *Manifest) write(outDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := os.WriteFile(filepath.Join(outDir, ManifestName), data, 0644); err != nil {
		return errors.Wrap(err, "writing manifest")
	}
	return nil
}
