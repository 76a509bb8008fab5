package export

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/arx-levelgen/internal/config"
	"github.com/Faultbox/arx-levelgen/pkg/formats"
	"github.com/Faultbox/arx-levelgen/pkg/level"
)

// Options controls where and how a level is written.
type Options struct {
	Dir             string
	UncompressedFTS bool
	Companion       Companion
}

// OptionsFrom reads the export settings of a loaded configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Dir:             cfg.Output.Dir,
		UncompressedFTS: cfg.Output.UncompressedFTS,
		Companion: Companion{
			Path:    cfg.Lighting.Companion.Path,
			Args:    cfg.Lighting.Companion.Args,
			Timeout: cfg.Lighting.Companion.Timeout,
		},
	}
}

// Exporter writes finalized maps.
type Exporter struct {
	Options Options
	Logger  *zap.Logger // nil discards
}

// NewExporter creates an exporter.
func NewExporter(opts Options, log *zap.Logger) *Exporter {
	return &Exporter{Options: opts, Logger: log}
}

func (e *Exporter) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

type encoded struct {
	kind formats.Kind
	path string
	data []byte
}

// Export writes the file triplet of level levelIdx and records it in the
// output directory's manifest. The three files are written concurrently and
// a failing write does not stop the others; their errors are combined. The
// returned manifest lists only files that were written.
func (e *Exporter) Export(ctx context.Context, m *level.Map, levelIdx int) (*Manifest, error) {
	if !m.IsFinalized() {
		return nil, level.ErrNotFinalized
	}

	files, err := e.encode(m, levelIdx)
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	entries := make([]*ManifestEntry, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f encoded) {
			defer wg.Done()
			if err := writeFile(f.path, f.data); err != nil {
				errs[i] = errors.Wrapf(err, "writing %s", f.kind)
				return
			}
			rel, err := filepath.Rel(e.Options.Dir, f.path)
			if err != nil {
				rel = f.path
			}
			entries[i] = &ManifestEntry{
				Path:     filepath.ToSlash(rel),
				Kind:     f.kind.String(),
				Level:    levelIdx,
				Size:     int64(len(f.data)),
				ExportID: exportID,
			}
		}(i, f)
	}
	wg.Wait()

	err = multierr.Combine(errs...)
	log := e.log()

	var written []ManifestEntry
	var paths []string
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		written = append(written, *entry)
		paths = append(paths, files[i].path)
		log.Info("wrote level file",
			zap.String("path", files[i].path),
			zap.String("size", humanize.Bytes(uint64(entry.Size))))
	}
	for _, werr := range multierr.Errors(err) {
		log.Error("level file not written", zap.Error(werr))
	}

	manifest := &Manifest{ID: exportID, Updated: time.Now().UTC()}
	if len(written) > 0 {
		merged, merr := e.recordManifest(exportID, written)
		if merr != nil {
			err = multierr.Append(err, merr)
		} else {
			manifest = merged
		}
	}
	manifest.Files = written

	if err == nil && e.Options.Companion.Enabled() {
		e.Options.Companion.Run(ctx, log.Named("companion"), paths)
	}
	return manifest, err
}

// recordManifest merges written files into the directory manifest.
func (e *Exporter) recordManifest(exportID string, written []ManifestEntry) (*Manifest, error) {
	current, err := ReadManifest(e.Options.Dir)
	switch {
	case errors.Is(err, ErrNoManifest):
		current = &Manifest{}
	case err != nil:
		return nil, err
	}
	current.ID = exportID
	current.Updated = time.Now().UTC()
	current.merge(written)
	if err := current.write(e.Options.Dir); err != nil {
		return nil, err
	}
	return &Manifest{ID: current.ID, Updated: current.Updated}, nil
}

// encode builds and packs the three files. Nothing is written when any of
// them fails to build.
func (e *Exporter) encode(m *level.Map, levelIdx int) ([]encoded, error) {
	paths := Paths(e.Options.Dir, levelIdx)
	files := make([]encoded, 0, len(kinds))
	for _, k := range kinds {
		raw, err := marshal(m, k, levelIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "building %s", k)
		}
		c := formats.CompressionFor(k)
		if k == formats.KindFTS && e.Options.UncompressedFTS {
			c = formats.None
		}
		packed, err := formats.PackBytes(k, raw, c)
		if err != nil {
			return nil, errors.Wrapf(err, "packing %s", k)
		}
		e.log().Debug("encoded level file",
			zap.Stringer("kind", k),
			zap.Stringer("compression", c),
			zap.String("raw", humanize.Bytes(uint64(len(raw)))),
			zap.String("packed", humanize.Bytes(uint64(len(packed)))))
		files = append(files, encoded{kind: k, path: paths.Path(k), data: packed})
	}
	return files, nil
}

func marshal(m *level.Map, k formats.Kind, levelIdx int) ([]byte, error) {
	switch k {
	case formats.KindDLF:
		d, err := m.ToDLF(levelIdx)
		if err != nil {
			return nil, err
		}
		return formats.MarshalDLF(d)
	case formats.KindFTS:
		f, err := m.ToFTS(levelIdx)
		if err != nil {
			return nil, err
		}
		return formats.MarshalFTS(f)
	default:
		l, err := m.ToLLF(levelIdx)
		if err != nil {
			return nil, err
		}
		return formats.MarshalLLF(l)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads the file triplet of level levelIdx from outDir into a finalized
// map.
func Load(outDir string, levelIdx int) (*level.Map, error) {
	paths := Paths(outDir, levelIdx)

	raw := make(map[formats.Kind][]byte, len(kinds))
	for _, k := range kinds {
		data, err := os.ReadFile(paths.Path(k))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", k)
		}
		body, err := formats.Unpack(k, data)
		if err != nil {
			return nil, errors.Wrapf(err, "unpacking %s", paths.Path(k))
		}
		raw[k] = body
	}

	dlf, err := formats.ParseDLF(raw[formats.KindDLF])
	if err != nil {
		return nil, errors.Wrap(err, "parsing dlf")
	}
	fts, err := formats.ParseFTS(raw[formats.KindFTS])
	if err != nil {
		return nil, errors.Wrap(err, "parsing fts")
	}
	llf, err := formats.ParseLLF(raw[formats.KindLLF])
	if err != nil {
		return nil, errors.Wrap(err, "parsing llf")
	}
	return level.FromFiles(dlf, fts, llf)
}

// Uninstall removes the files listed in the manifest of outDir, then the
// manifest itself. Files already gone are skipped. The manifest is kept
// when any removal fails.
func Uninstall(outDir string) ([]string, error) {
	manifest, err := ReadManifest(outDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, f := range manifest.Files {
		path := filepath.Join(outDir, filepath.FromSlash(f.Path))
		switch rerr := os.Remove(path); {
		case rerr == nil:
			removed = append(removed, path)
		case os.IsNotExist(rerr):
		default:
			err = multierr.Append(err, errors.Wrapf(rerr, "removing %s", f.Path))
		}
	}
	if err != nil {
		return removed, err
	}
	if err := os.Remove(filepath.Join(outDir, ManifestName)); err != nil {
		return removed, errors.Wrap(err, "removing manifest")
	}
	return removed, nil
}
