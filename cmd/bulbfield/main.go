package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/bulbfield/internal/analysis"
	"github.com/san-kum/bulbfield/internal/automation"
	"github.com/san-kum/bulbfield/internal/config"
	"github.com/san-kum/bulbfield/internal/export"
	"github.com/san-kum/bulbfield/internal/fractal"
	"github.com/san-kum/bulbfield/internal/storage"
	"github.com/san-kum/bulbfield/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string

	resolution    int
	scale         float64
	maxIterations int
	threshold     float64
	power         int
	blend         float64
	keyMode       string
	seed          int64
	workers       int
	configFile    string
	preset        string
	showProgress  bool

	// snapshot camera
	width  int
	height int
	yaw    float64
	pitch  float64
	zoom   float64
	output string

	svgOut   string
	svgScale float64

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	logger = bslogger.NewLogger("bulbfield", bslogger.Normal, nil)
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "bulbfield",
		Short:        "escape-time fractal point cloud generator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bulbfield", "data directory")

	generateCmd := &cobra.Command{
		Use:   "generate [name]",
		Short: "generate a point cloud and save it as a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  generateRun,
	}
	addParamFlags(generateCmd)
	generateCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for colors")
	generateCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all cpus, 1 = sequential)")
	generateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), applied on top of --preset")
	generateCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration; flags override both")
	generateCmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	statsCmd := &cobra.Command{
		Use:   "stats [run_id]",
		Short: "summarize a run with histograms",
		Args:  cobra.ExactArgs(1),
		RunE:  statsRun,
	}

	previewCmd := &cobra.Command{
		Use:   "preview [run_id]",
		Short: "draw a static braille snapshot of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  previewRun,
	}
	addCameraFlags(previewCmd, 80, 30)
	previewCmd.Flags().StringVar(&svgOut, "svg", "", "also write the braille snapshot to this SVG file")
	previewCmd.Flags().Float64Var(&svgScale, "svg-scale", 4, "SVG size of one braille dot")

	exportPLYCmd := &cobra.Command{
		Use:   "export-ply [run_id]",
		Short: "export a run as an ASCII PLY point cloud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCloud(args[0], export.WritePLY)
		},
	}
	exportPLYCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export position and color buffers as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCloud(args[0], export.WriteJSON)
		},
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a static colored snapshot as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	addCameraFlags(exportSVGCmd, 800, 800)
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark generation across resolutions and worker counts",
		RunE:  benchGenerate,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and compare the resulting clouds",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "power", "parameter to sweep ("+strings.Join(config.TunableParams, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 2, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "base preset")
	sweepCmd.Flags().Int64Var(&seed, "seed", 42, "random seed for colors")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of generation steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.New(dataDir).Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(generateCmd, listCmd, showCmd, statsCmd, previewCmd, exportPLYCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, sweepCmd, scenarioCmd, deleteCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&resolution, "resolution", config.DefaultResolution, "lattice half-width R; (2R)^3 cells")
	cmd.Flags().Float64Var(&scale, "scale", config.DefaultScale, "lattice coordinate scale")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", config.DefaultMaxIterations, "escape-time refinement budget")
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultDistanceThreshold, "cells farther than this are skipped")
	cmd.Flags().IntVar(&power, "power", config.DefaultPower, "power map exponent")
	cmd.Flags().Float64Var(&blend, "blend", config.DefaultBlend, "bridge color blend factor")
	cmd.Flags().StringVar(&keyMode, "key-mode", config.DefaultKeyMode, "color registry key (coordinate, lattice)")
}

func addCameraFlags(cmd *cobra.Command, w, h int) {
	cam := viz.NewCamera()
	cmd.Flags().IntVar(&width, "width", w, "output width")
	cmd.Flags().IntVar(&height, "height", h, "output height")
	cmd.Flags().Float64Var(&yaw, "yaw", cam.Yaw, "rotation about the vertical axis (radians)")
	cmd.Flags().Float64Var(&pitch, "pitch", cam.Pitch, "rotation about the horizontal axis (radians)")
	cmd.Flags().Float64Var(&zoom, "zoom", cam.Zoom, "zoom factor")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order. Flag defaults equal the config defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := baseConfig(preset, configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		cfg.Resolution = resolution
	}
	if flags.Changed("scale") {
		cfg.Scale = scale
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	if flags.Changed("threshold") {
		cfg.DistanceThreshold = threshold
	}
	if flags.Changed("power") {
		cfg.Power = power
	}
	if flags.Changed("blend") {
		cfg.Blend = blend
	}
	if flags.Changed("key-mode") {
		cfg.KeyMode = keyMode
	}
	if cfg.Seed == 0 || flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}

	return cfg, nil
}

// baseConfig starts from the named preset (or the defaults) and overlays
// the config file, if any, on top of it.
func baseConfig(presetName, path string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, sortedPresets())
		}
	}

	if path != "" {
		loaded, err := config.Overlay(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug(fmt.Sprintf("loaded config %s", path))
	}
	return cfg, nil
}

func generateRun(cmd *cobra.Command, args []string) error {
	name := "bulb"
	if len(args) > 0 {
		name = args[0]
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	var cloud *fractal.Cloud
	if showProgress {
		cloud, err = generateWithProgress(ctx, params, cfg)
	} else {
		cloud, err = generate(ctx, params, cfg)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, cloud, elapsed)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("points: %d (%d primary, %d bridges)\n", cloud.Len(), cloud.Primary, cloud.Bridges)
	fmt.Printf("skipped cells: %d\n", cloud.Skipped)
	fmt.Printf("elapsed: %v\n", elapsed.Round(time.Millisecond))
	return nil
}

func generate(ctx context.Context, params fractal.Params, cfg *config.Config, opts ...fractal.Option) (*fractal.Cloud, error) {
	opts = append(opts, fractal.WithSeed(cfg.Seed))
	if cfg.Workers == 1 {
		return fractal.Generate(ctx, params, opts...)
	}
	return fractal.GenerateParallel(ctx, params, cfg.Workers, opts...)
}

func generateWithProgress(ctx context.Context, params fractal.Params, cfg *config.Config) (*fractal.Cloud, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := fmt.Sprintf("generating %d³ lattice", 2*params.Resolution)
	p := tea.NewProgram(viz.NewProgressModel(title, 2*params.Resolution))

	go func() {
		cloud, err := generate(ctx, params, cfg, fractal.WithObserver(viz.Observer(p)))
		p.Send(viz.DoneMsg{Cloud: cloud, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := final.(viz.ProgressModel)
	if m.Interrupted {
		return nil, fractal.ErrCanceled
	}
	return m.Result, m.Err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tRES\tPOWER\tITER\tPOINTS\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.1fms\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Resolution,
			run.Config.Power,
			run.Config.MaxIterations,
			run.Points,
			run.ElapsedMs,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func statsRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cloud, err := st.LoadCloud(args[0])
	if err != nil {
		return err
	}

	s := analysis.Summarize(cloud)
	rows := []string{
		viz.Title.Render(meta.ID),
		viz.Metric("points", s.Points),
		viz.Metric("primary", s.Primary),
		viz.Metric("bridges", s.Bridges),
		viz.Metric("skipped cells", s.Skipped),
		viz.Metric("budget exhausted", s.Exhausted),
		viz.Metric("mean radius", fmt.Sprintf("%.4f", s.MeanRadius)),
		viz.Metric("max radius", fmt.Sprintf("%.4f", s.MaxRadius)),
		viz.Metric("extent", fmt.Sprintf("%.4f", s.Extent())),
		viz.MetricLabel.Render("mean color") + viz.Swatch(s.MeanColor),
	}
	fmt.Println(viz.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	fmt.Println()

	if s.Points == 0 {
		return nil
	}

	fmt.Println(asciigraph.Plot(analysis.RadiusHistogram(cloud, 40),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("points by radius"),
	))
	fmt.Println()

	if iters := analysis.IterationHistogram(cloud); len(iters) > 1 {
		fmt.Println(asciigraph.Plot(iters,
			asciigraph.Height(8),
			asciigraph.Caption("primary points by escape-time iterations"),
		))
		fmt.Println()
	}

	return nil
}

func snapshotCamera(cloud *fractal.Cloud) *viz.Camera {
	cam := viz.NewCamera()
	cam.Fit(analysis.Summarize(cloud))
	cam.Yaw, cam.Pitch, cam.Zoom = yaw, pitch, zoom
	return cam
}

func previewRun(cmd *cobra.Command, args []string) error {
	cloud, err := storage.New(dataDir).LoadCloud(args[0])
	if err != nil {
		return err
	}

	canvas, visible := renderPreview(cloud, width, height)
	fmt.Print(canvas.String())
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("%d/%d points visible, %d dots lit", visible, cloud.Len(), canvas.Lit())))

	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.CanvasToSVG(canvas, svgScale)), 0644); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("wrote braille snapshot to %s", svgOut))
	}
	return nil
}

func renderPreview(cloud *fractal.Cloud, w, h int) (*viz.Canvas, int) {
	canvas := viz.NewCanvas(w, h)
	visible := viz.RenderCloud(canvas, cloud, snapshotCamera(cloud))
	return canvas, visible
}

func openOutput() (io.WriteCloser, error) {
	if output == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(output)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCloud(runID string, write func(io.Writer, *fractal.Cloud) error) error {
	cloud, err := storage.New(dataDir).LoadCloud(runID)
	if err != nil {
		return err
	}

	f, err := openOutput()
	if err != nil {
		return err
	}
	if err := write(f, cloud); err != nil {
		f.Close()
		return err
	}
	if output != "" {
		logger.Info(fmt.Sprintf("wrote %d points to %s", cloud.Len(), output))
	}
	return f.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	return exportCloud(args[0], func(w io.Writer, cloud *fractal.Cloud) error {
		_, err := io.WriteString(w, export.CloudToSVG(cloud, snapshotCamera(cloud), width, height))
		return err
	})
}

func sortedPresets() []string {
	names := config.ListPresets()
	sort.Strings(names)
	return names
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRES\tSCALE\tITER\tTHRESHOLD\tPOWER\tKEYS")
	for _, name := range sortedPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%d\t%g\t%d\t%s\n",
			name, p.Resolution, p.Scale, p.MaxIterations, p.DistanceThreshold, p.Power, p.KeyMode)
	}
	return w.Flush()
}

func benchGenerate(cmd *cobra.Command, args []string) error {
	resolutions := []int{8, 16, 32}
	workerCounts := []int{1, runtime.NumCPU()}

	fmt.Printf("benchmarking generation (%d cpus)\n\n", runtime.NumCPU())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RES\tWORKERS\tCELLS\tPOINTS\tTIME\tCELLS/SEC")

	for _, res := range resolutions {
		params := fractal.DefaultParams()
		params.Resolution = res

		for _, n := range workerCounts {
			cfg := &config.Config{Seed: 42, Workers: n}

			start := time.Now()
			cloud, err := generate(context.Background(), params, cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			cells := params.Cells()
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%.0f\n",
				res, n, cells, cloud.Len(), elapsed.Round(time.Microsecond), float64(cells)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := baseConfig(preset, "")
	if err != nil {
		return err
	}
	base.Seed = seed

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.NewRunner(nil).RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPOINTS\tEXHAUSTED\tMEAN R\tEXTENT\tTIME\n", strings.ToUpper(sweepParam))
	points := make([]float64, len(results))
	for i, r := range results {
		points[i] = float64(r.Summary.Points)
		fmt.Fprintf(w, "%g\t%d\t%d\t%.4f\t%.4f\t%v\n",
			r.ParamValue, r.Summary.Points, r.Summary.Exhausted, r.Summary.MeanRadius, r.Summary.Extent(), r.Elapsed.Round(time.Microsecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(points) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(points,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("points vs "+sweepParam),
		))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Println(viz.Subtle.Render(scenario.Description))
	}
	fmt.Println()

	results, err := automation.NewRunner(st).RunScenario(ctx, scenario)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRES\tPOWER\tPOINTS\tTIME\tRUN")
	for i, r := range results {
		run := r.RunID
		if run == "" {
			run = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%s\n",
			i+1, r.Config.Resolution, r.Config.Power, r.Summary.Points, r.Elapsed.Round(time.Millisecond), run)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}

	if errors.Is(err, fractal.ErrCanceled) {
		logger.Warning("scenario interrupted")
	}
	return err
}
