// arxlevel generates Arx Fatalis levels and inspects level files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/arx-levelgen/internal/config"
	"github.com/Faultbox/arx-levelgen/internal/export"
	"github.com/Faultbox/arx-levelgen/internal/generate"
	"github.com/Faultbox/arx-levelgen/internal/logger"
	"github.com/Faultbox/arx-levelgen/pkg/formats"
	"github.com/Faultbox/arx-levelgen/pkg/level"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "unpack":
		cmdUnpack(args)
	case "pack":
		cmdPack(args)
	case "uninstall":
		cmdUninstall(args)
	case "init-config":
		cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`arxlevel - Arx Fatalis level generator

Usage:
  arxlevel <command> [options]

Commands:
  generate [flags]              Generate a demo level and export it
  info <dir> <level>            Show what an exported level contains
  dump [-depth N] <file>        Dump the decoded structure of a level file
  unpack [-kind K] <file> <out> Write the decompressed form of a level file
  pack [-kind K] <file> <out>   Compress a decompressed level file
  uninstall <dir>               Remove every file exported to a directory
  init-config [path]            Write the default configuration

Generate flags:
  -config <path>  -out <dir>  -level <n>  -seed <n>  -debug
  -uncompressed-fts  -no-lighting  -lighting-mode <mode>

Examples:
  arxlevel generate -out ~/arx -level 1 -seed 42
  arxlevel info ~/arx 1
  arxlevel dump ~/arx/graph/levels/level1/level1.dlf
  arxlevel uninstall ~/arx`)
}

func fatal(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func cmdGenerate(args []string) {
	if err := config.ParseArgs(args); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal("initializing logger: %v", err)
	}
	defer logger.Sync()

	mode, err := cfg.LightingMode()
	if err != nil {
		fatal("%v", err)
	}

	reg := level.NewRegistry()
	m := generate.Demo(cfg.Generation, reg)
	logger.Info("generated level",
		zap.Int64("seed", cfg.Generation.Seed),
		zap.Int("polygons", len(m.Polygons)),
		zap.Int("lights", len(m.Lights)),
		zap.Strings("items", reg.Items()))

	err = m.Finalize(level.Settings{
		CalculateLighting: cfg.Lighting.Calculate,
		LightingMode:      mode,
		Logger:            logger.Named("finalize"),
	})
	if err != nil {
		logger.Fatal("finalize failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exporter := export.NewExporter(export.OptionsFrom(cfg), logger.Named("export"))
	manifest, err := exporter.Export(ctx, m, cfg.Output.Level)
	if err != nil {
		logger.Error("export incomplete", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("exported level",
		zap.Int("level", cfg.Output.Level),
		zap.String("dir", cfg.Output.Dir),
		zap.String("export_id", manifest.ID),
		zap.Int("files", len(manifest.Files)))
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: arxlevel info <dir> <level>")
		os.Exit(1)
	}
	dir := fs.Arg(0)
	idx, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fatal("invalid level %q", fs.Arg(1))
	}

	m, err := export.Load(dir, idx)
	if err != nil {
		fatal("%v", err)
	}

	paths := export.Paths(dir, idx)
	fmt.Printf("Level:     %d\n", idx)
	for _, k := range []formats.Kind{formats.KindDLF, formats.KindFTS, formats.KindLLF} {
		size := "?"
		if st, err := os.Stat(paths.Path(k)); err == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Printf("  %-4s %-9s %s\n", k, size, paths.Path(k))
	}
	fmt.Println()
	fmt.Printf("Offset:    %v\n", m.Config.Offset)
	fmt.Printf("Player:    %v\n", m.Player.Position)
	fmt.Printf("Polygons:  %s\n", humanize.Comma(int64(len(m.Polygons))))
	fmt.Printf("Textures:  %d\n", len(m.Textures))
	fmt.Printf("Rooms:     %d\n", len(m.Rooms)-1)
	fmt.Printf("Portals:   %d\n", len(m.Portals))
	fmt.Printf("Lights:    %d\n", len(m.Lights))
	fmt.Printf("Entities:  %d\n", len(m.Entities))
	fmt.Printf("Fogs:      %d\n", len(m.Fogs))
	fmt.Printf("Paths:     %d\n", len(m.Paths))
	fmt.Printf("Anchors:   %d\n", len(m.Anchors))
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	depth := fs.Int("depth", 3, "Maximum nesting depth (0 = unlimited)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: arxlevel dump [-depth N] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	kind, err := formats.KindFromPath(path)
	if err != nil {
		fatal("%v", err)
	}

	var decoded any
	switch kind {
	case formats.KindDLF:
		decoded, err = formats.ParseDLFFile(path)
	case formats.KindFTS:
		decoded, err = formats.ParseFTSFile(path)
	case formats.KindLLF:
		decoded, err = formats.ParseLLFFile(path)
	}
	if err != nil {
		fatal("%v", err)
	}

	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.MaxDepth = *depth
	cfg.Fdump(os.Stdout, decoded)
}

// readKind reads a level file. Its kind comes from name when set, otherwise
// from the file extension.
func readKind(path, name string) (formats.Kind, []byte) {
	var kind formats.Kind
	var err error
	if name != "" {
		kind, err = formats.ParseKind(name)
	} else {
		kind, err = formats.KindFromPath(path)
	}
	if err != nil {
		fatal("%v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("reading file: %v", err)
	}
	return kind, data
}

func writeOutput(path string, data []byte, in int) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fatal("creating directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fatal("writing file: %v", err)
	}
	fmt.Printf("Wrote: %s (%s -> %s)\n", path, humanize.Bytes(uint64(in)), humanize.Bytes(uint64(len(data))))
}

func cmdUnpack(args []string) {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	kindName := fs.String("kind", "", "File kind: dlf, fts or llf (default: from extension)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: arxlevel unpack [-kind K] <file> <output>")
		os.Exit(1)
	}

	kind, data := readKind(fs.Arg(0), *kindName)
	raw, err := formats.Unpack(kind, data)
	if err != nil {
		fatal("%v", err)
	}
	writeOutput(fs.Arg(1), raw, len(data))
}

func cmdPack(args []string) {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	kindName := fs.String("kind", "", "File kind: dlf, fts or llf (default: from extension)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: arxlevel pack [-kind K] <file> <output>")
		os.Exit(1)
	}

	kind, raw := readKind(fs.Arg(0), *kindName)
	packed, err := formats.PackBytes(kind, raw, formats.CompressionFor(kind))
	if err != nil {
		fatal("%v", err)
	}
	writeOutput(fs.Arg(1), packed, len(raw))
}

func cmdUninstall(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: arxlevel uninstall <dir>")
		os.Exit(1)
	}

	removed, err := export.Uninstall(args[0])
	for _, path := range removed {
		fmt.Printf("Removed: %s\n", path)
	}
	if err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "\nRemoved %d files\n", len(removed))
}

func cmdInitConfig(args []string) {
	cfg := config.Default()

	var path string
	var err error
	if len(args) > 0 {
		path = args[0]
		err = cfg.SaveTo(path)
	} else {
		path, err = cfg.Save()
	}
	if err != nil {
		fatal("writing config: %v", err)
	}
	fmt.Printf("Wrote: %s\n", path)
}
