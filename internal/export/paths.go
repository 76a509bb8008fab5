// Package export writes finalized maps to the engine's directory layout and
// reads them back.
package export

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/arx-levelgen/pkg/formats"
)

// ManifestName is the file, relative to the output directory, listing every
// level file written there.
const ManifestName = "arx-levelgen-manifest.json"

// Files holds the absolute paths of one level's file triplet.
type Files struct {
	DLF string
	LLF string
	FTS string
}

// Paths returns where level levelIdx lives under the game root outDir.
func Paths(outDir string, levelIdx int) Files {
	name := fmt.Sprintf("level%d", levelIdx)
	return Files{
		DLF: filepath.Join(outDir, "graph", "levels", name, name+".dlf"),
		LLF: filepath.Join(outDir, "graph", "levels", name, name+".llf"),
		FTS: filepath.Join(outDir, "game", "graph", "levels", name, "fast.fts"),
	}
}

// Path returns the path of one kind.
func (f Files) Path(k formats.Kind) string {
	switch k {
	case formats.KindDLF:
		return f.DLF
	case formats.KindLLF:
		return f.LLF
	default:
		return f.FTS
	}
}

var kinds = [...]formats.Kind{formats.KindDLF, formats.KindFTS, formats.KindLLF}
