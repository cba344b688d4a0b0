// pldtool is a CLI utility for inspecting placement dumps and running
// headless scene builds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/ironblock/bim-demo/internal/config"
	"github.com/ironblock/bim-demo/internal/logger"
	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/internal/source"
	"github.com/ironblock/bim-demo/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "gen", "generate":
		cmdGen(args)
	case "build":
		cmdBuild(args)
	case "pick":
		cmdPick(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pldtool - placement dump utility

Usage:
  pldtool <command> [options]

Commands:
  info <file.pld>                      Show dump contents and dedup ratio
  gen [options] <out.pld>              Generate a synthetic grid model
  build [options] <file.pld>           Run a headless build and print stats
  pick [options] <file.pld> <batch> <instance>
                                       Resolve a batch instance to its element
  config [path]                        Write the default config file

Examples:
  pldtool gen -cols 40 -rows 40 -floors 20 tower.pld
  pldtool info tower.pld
  pldtool build -chunk 50 -v tower.pld
  pldtool pick tower.pld 3 17`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pldtool info <file.pld>")
		os.Exit(1)
	}

	model, err := source.Open(args[0])
	if err != nil {
		fail(err)
	}
	pld := model.PLD()

	groups, report := scene.Dedup(model.Placements(), model)

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Name:       %s\n", pld.Name)
	fmt.Printf("Version:    %s (%s)\n", pld.Version, pld.UpAxis)
	fmt.Printf("Shapes:     %d\n", len(pld.Shapes))
	fmt.Printf("Elements:   %d\n", len(pld.Elements))
	fmt.Printf("Placements: %d\n", len(pld.Placements))
	fmt.Printf("Triangles:  %d\n", pld.TriangleCount())
	fmt.Printf("Groups:     %d", len(groups))
	if len(groups) > 0 {
		fmt.Printf(" (%.1f placements per upload)", float64(report.Accepted)/float64(len(groups)))
	}
	fmt.Println()
	if report.SkippedPlacements > 0 {
		fmt.Printf("Skipped:    %d placements, missing shapes %v\n", report.SkippedPlacements, report.MissingShapes)
	}
	fmt.Println()
	fmt.Println("Placements by type:")

	type typeStat struct {
		name  string
		count int
	}
	var stats []typeStat
	for name, count := range pld.CountByType() {
		if name == "" {
			name = "(unknown)"
		}
		stats = append(stats, typeStat{name, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].name < stats[j].name
	})
	for _, s := range stats {
		fmt.Printf("  %-16s %d\n", s.name, s.count)
	}
}

func cmdGen(args []string) {
	opts := formats.DefaultGenerateOptions()

	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	fs.IntVar(&opts.Columns, "cols", opts.Columns, "Grid columns")
	fs.IntVar(&opts.Rows, "rows", opts.Rows, "Grid rows")
	fs.IntVar(&opts.Floors, "floors", opts.Floors, "Floors")
	fs.IntVar(&opts.ShapeVariants, "shapes", opts.ShapeVariants, "Distinct shapes")
	fs.IntVar(&opts.Colors, "colors", opts.Colors, "Palette colors (0 = uncolored)")
	fs.Uint64Var(&opts.Seed, "seed", opts.Seed, "Random seed")
	zUp := fs.Bool("zup", false, "Write Z-up coordinates")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pldtool gen [options] <out.pld>")
		os.Exit(1)
	}
	if *zUp {
		opts.UpAxis = formats.PLDUpZ
	}

	pld, err := formats.Generate(opts)
	if err != nil {
		fail(err)
	}
	if err := formats.WritePLDFile(fs.Arg(0), pld); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s: %d placements, %d shapes\n", fs.Arg(0), len(pld.Placements), len(pld.Shapes))
}

// buildFlags are shared by build and pick.
type buildFlags struct {
	configPath *string
	chunk      *int
	axis       *string
	verbose    *bool
}

func addBuildFlags(fs *flag.FlagSet) buildFlags {
	return buildFlags{
		configPath: fs.String("config", "", "Path to config file"),
		chunk:      fs.Int("chunk", 0, "Groups per build step"),
		axis:       fs.String("axis", "", "Axis conversion (none, flip-x, flip-y, flip-z, z-up)"),
		verbose:    fs.Bool("v", false, "Debug logging"),
	}
}

// runBuild loads the model and builds it into a memory sink.
func runBuild(path string, bf buildFlags, progress func(scene.BuildProgress)) (*source.Model, *scene.SceneModel, error) {
	cfg, err := config.LoadFile(*bf.configPath)
	if err != nil {
		return nil, nil, err
	}
	if *bf.chunk > 0 {
		cfg.Build.ChunkSize = *bf.chunk
	}
	if *bf.axis != "" {
		cfg.Build.AxisConversion = *bf.axis
	}
	if *bf.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, err
	}

	opts, err := cfg.Build.SceneOptions()
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = logger.Named("builder")

	model, err := source.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if *bf.axis == "" {
		opts.Axis = model.Axis(opts.Axis)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := scene.Prepare(model.Placements(), model, scene.NewMemorySink(), opts)
	s, err := scene.Run(ctx, b, progress)
	if err != nil {
		return nil, nil, err
	}
	return model, s, nil
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	bf := addBuildFlags(fs)
	quiet := fs.Bool("q", false, "Suppress progress output")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pldtool build [options] <file.pld>")
		os.Exit(1)
	}
	defer logger.Sync()

	progress := func(p scene.BuildProgress) {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "\r%-10s %6d/%-6d %5.1f%%", p.Phase, p.Done, p.Total, p.Fraction()*100)
		}
	}

	_, s, err := runBuild(fs.Arg(0), bf, progress)
	if !*quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fail(err)
	}
	defer s.Dispose()

	st := s.Stats
	fmt.Printf("Build:      %s\n", s.ID)
	fmt.Printf("Groups:     %d (%d singleton, %d instanced)\n", st.Groups, st.Singletons, st.Instanced)
	fmt.Printf("Instances:  %d\n", st.Instances)
	fmt.Printf("Materials:  %d\n", st.Materials)
	fmt.Printf("Dropped:    %d\n", st.Dropped)
	fmt.Printf("Skipped:    %d placements\n", st.SkippedPlacements)
	fmt.Printf("Elapsed:    %s\n", st.Elapsed)

	if b, ok := s.Bounds(); ok {
		fmt.Printf("Bounds:     min (%.2f, %.2f, %.2f) max (%.2f, %.2f, %.2f)\n",
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		fmt.Printf("Center:     (%.2f, %.2f, %.2f)\n", b.Center.X, b.Center.Y, b.Center.Z)
		fmt.Printf("Diagonal:   %.3f\n", b.Diagonal)
	} else {
		fmt.Println("Bounds:     none")
	}

	for _, w := range st.Warnings {
		logger.Warn("dropped group",
			zap.Int64("shape", int64(w.Key.Shape)),
			zap.Stringer("color", w.Key.Color),
			zap.Int("instances", w.Instances),
			zap.Error(w.Err))
	}
}

func cmdPick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	bf := addBuildFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: pldtool pick [options] <file.pld> <batch> <instance>")
		os.Exit(1)
	}
	batch, err := strconv.ParseUint(fs.Arg(1), 10, 32)
	if err != nil {
		fail(fmt.Errorf("batch: %w", err))
	}
	instance, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		fail(fmt.Errorf("instance: %w", err))
	}
	defer logger.Sync()

	model, s, err := runBuild(fs.Arg(0), bf, nil)
	if err != nil {
		fail(err)
	}
	defer s.Dispose()

	elem, info, err := s.Describe(scene.BatchID(batch), instance, model)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Element: %d\n", elem)
	fmt.Printf("Type:    %s\n", info.Type)
	fmt.Printf("Name:    %s\n", info.Name)
}

func cmdConfig(args []string) {
	cfg := config.Default()
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", args[0])
		return
	}
	if err := cfg.Save(); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s\n", config.ConfigDir()+"/config.yaml")
}
