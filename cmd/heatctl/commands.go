package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	geojson "github.com/paulmach/go.geojson"
	"github.com/spf13/cobra"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/report"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/spatial"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "heatctl",
	Short: "Urban heat scenario explorer",
	Long: `heatctl computes baseline heat-index maps from brightness, NDVI and slope
rasters and evaluates greening scenarios (tree canopy, green roofs, parks)
against them. Rasters are read from a directory holding brightness, ndvi_norm,
slope and optionally buildings as GeoTIFF or JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the intervention presets",
	RunE:  runPresets,
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Compute the baseline heat index",
	RunE:  runBaseline,
}

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Evaluate a greening scenario against the baseline",
	RunE:  runScenario,
}

var twinCmd = &cobra.Command{
	Use:   "twin",
	Short: "Project a scenario over 20 years of maturing interventions",
	RunE:  runTwin,
}

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Print the hottest cells as GeoJSON with explanations",
	RunE:  runHotspots,
}

// Input flags shared by every raster command.
var (
	dataDir   string
	cityName  string
	pixelSize float64
	originX   float64
	originY   float64
	scale     float64
	normalize bool
	threshold float64
)

// Scenario flags.
var (
	presetName string
	canopyPct  float64
	roofPct    float64
	parkPct    float64
	zonesPath  string
	costLevels []string
	carbon     float64
)

var (
	outPath   string
	asJSON    bool
	asCSV     bool
	allYears  bool
	spotCount int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{baselineCmd, scenarioCmd, twinCmd, hotspotsCmd} {
		cmd.Flags().StringVarP(&dataDir, "dir", "d", ".", "Directory holding the city rasters")
		cmd.Flags().StringVar(&cityName, "city", "", "City label used in reports (default: directory name)")
		cmd.Flags().Float64Var(&pixelSize, "pixel-size", raster.DefaultPixelSizeM, "Cell size in metres")
		cmd.Flags().Float64Var(&originX, "origin-x", 0, "Projected x of the top-left corner")
		cmd.Flags().Float64Var(&originY, "origin-y", 0, "Projected y of the top-left corner")
		cmd.Flags().Float64Var(&scale, "scale", 1, "Multiplier applied to raw TIFF samples")
		cmd.Flags().BoolVar(&normalize, "normalize", false, "Min-max rescale the NDVI and slope bands to [0,1]")
		cmd.Flags().Float64VarP(&threshold, "threshold", "t", workflow.DefaultThreshold, "High-heat threshold")
	}

	for _, cmd := range []*cobra.Command{scenarioCmd, twinCmd} {
		cmd.Flags().StringVarP(&presetName, "preset", "p", "", "Named preset (Moderate, High); overrides the percentages")
		cmd.Flags().Float64Var(&canopyPct, "canopy", 0, "Tree canopy increase in percent")
		cmd.Flags().Float64Var(&roofPct, "roof", 0, "Roof greening in percent")
		cmd.Flags().Float64Var(&parkPct, "park", 0, "Park area increase in percent")
		cmd.Flags().StringVar(&zonesPath, "zones", "", "GeoJSON FeatureCollection of intervention zones (default: delineate from rasters)")
		cmd.Flags().StringSliceVar(&costLevels, "cost-level", nil, "Cost level per intervention, e.g. canopy=low")
		cmd.Flags().Float64Var(&carbon, "carbon", planning.CarbonFactorDefault, "Sequestration in kg CO2/m2/yr")
	}

	baselineCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the heat-index raster as JSON to this file")
	scenarioCmd.Flags().BoolVar(&asJSON, "json", false, "Print the evaluation as JSON")
	scenarioCmd.Flags().BoolVar(&asCSV, "csv", false, "Print the outcomes as CSV")
	scenarioCmd.MarkFlagsMutuallyExclusive("json", "csv")
	twinCmd.Flags().BoolVar(&allYears, "all-years", false, "Print every year instead of the snapshots")
	hotspotsCmd.Flags().IntVarP(&spotCount, "count", "n", 10, "Number of hotspots")

	rootCmd.AddCommand(presetsCmd, baselineCmd, scenarioCmd, twinCmd, hotspotsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCANOPY %\tROOF %\tPARK %")
	for _, p := range planning.Presets() {
		fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\n", p.Name, p.CanopyPct, p.RoofPct, p.ParkPct)
	}
	return tw.Flush()
}

func runBaseline(cmd *cobra.Command, args []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	hi, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return err
	}
	lo, hiMax, err := raster.MinMax(hi)
	if err != nil {
		return &heatindex.EmptyRasterError{Op: "baseline"}
	}
	mean, err := raster.Mean(hi)
	if err != nil {
		return err
	}
	area, err := heatindex.AreaAboveThreshold(hi, in.Transform.CellAreaKm2(), threshold)
	if err != nil {
		return err
	}

	rows, cols := hi.Shape()
	fmt.Fprintf(cmd.OutOrStdout(), "grid %dx%d  min %.4f  max %.4f  mean %.4f  area>%.2f %.4f km2\n",
		rows, cols, lo, hiMax, mean, threshold, area)

	if outPath == "" {
		return nil
	}
	return writeJSONFile(outPath, map[string]any{"rows": raster.ToNullableRows(hi)})
}

func runScenario(cmd *cobra.Command, args []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	req, preset, err := buildRequest(in)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	ev, err := engine.Evaluate(cmd.Context(), req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	case asCSV:
		outcomes := append([]planning.Outcome{ev.Combined}, ev.Outcomes...)
		return report.WriteCSV(w, report.RowsFor(ev.Key, ev.City, preset, ev.EvaluatedAt, outcomes...))
	}
	return printOutcomes(w, ev)
}

func printOutcomes(w io.Writer, ev *workflow.Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "baseline high-heat area\t%.4f km2\n\n", ev.BaselineAreaKm2)
	fmt.Fprintln(tw, "SCENARIO\tAREA KM2\tREDUCTION %\tMEAN DELTA\tCOST M EUR\tCO2 T/YR")
	for _, o := range append([]planning.Outcome{ev.Combined}, ev.Outcomes...) {
		fmt.Fprintf(tw, "%s\t%.4f\t%.1f\t%.4f\t%.2f\t%.0f\n",
			o.Scenario, o.AreaKm2, o.ReductionPct, o.MeanHIDelta, o.CostMEUR, o.CO2Tonnes)
	}
	if best, ok := planning.BestOutcome(ev.Outcomes); ok {
		fmt.Fprintf(tw, "\nbest single intervention\t%s\n", best.Scenario)
	}
	for _, ch := range planning.Challenges() {
		res := ch.Evaluate(ev.Combined)
		status := "met"
		if !res.Passed {
			status = "missed: " + strings.Join(res.Failures, "; ")
		}
		fmt.Fprintf(tw, "challenge %s\t%s\n", ch.ID, status)
	}
	return tw.Flush()
}

func runTwin(cmd *cobra.Command, args []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	req, _, err := buildRequest(in)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	baseline, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return err
	}
	zones, err := engine.Zones(req, baseline)
	if err != nil {
		return err
	}

	years := planning.SnapshotYears
	if allYears {
		years = planning.AllYears()
	}
	points, err := planning.ProjectTwin(planning.TwinInputs{
		B:           in.B,
		NDVI:        in.NDVI,
		S:           in.S,
		Zones:       zones,
		Params:      req.Params,
		Model:       engine.Model(),
		CellAreaKm2: in.Transform.CellAreaKm2(),
		Threshold:   threshold,
	}, years)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tAREA KM2\tMEAN HI\tREDUCTION %")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.1f\n", p.Year, p.AreaKm2, p.MeanHI, p.ReductionPct)
	}
	return tw.Flush()
}

func runHotspots(cmd *cobra.Command, args []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	hi, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return err
	}
	built := in.Built
	if built == nil {
		if built, err = raster.Filled(hi.Rows(), hi.Cols(), math.NaN()); err != nil {
			return err
		}
	}
	hs, err := planning.TopHotspots(hi, built, in.NDVI, spotCount)
	if err != nil {
		return err
	}

	rows, cols := hi.Shape()
	gt := in.Transform
	located, err := spatial.NewIndex(hs, gt).Within(spatial.BBox{
		MinX: gt.OriginX,
		MinY: gt.OriginY - float64(rows)*gt.PixelSizeM,
		MaxX: gt.OriginX + float64(cols)*gt.PixelSizeM,
		MaxY: gt.OriginY,
	})
	if err != nil {
		return err
	}
	data, err := geo.HotspotCollection(located).MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func loadInputs() (workflow.Inputs, error) {
	gt := raster.GeoTransform{OriginX: originX, OriginY: originY, PixelSizeM: pixelSize}
	if err := gt.Validate(); err != nil {
		return workflow.Inputs{}, err
	}
	opts := raster.DefaultBandOptions()
	opts.Scale = scale
	opts.Normalize = normalize
	return workflow.LoadInputs(dataDir, gt, opts)
}

func newEngine() (*workflow.Engine, error) {
	return workflow.NewEngine(heatindex.DefaultModel(), nil, observability.NewLoggerTo(os.Stderr, logLevel, "text"))
}

// buildRequest walks the session steps with the flag values and returns
// the request plus the preset label used in reports.
func buildRequest(in workflow.Inputs) (workflow.Request, string, error) {
	params, preset, err := scenarioParams()
	if err != nil {
		return workflow.Request{}, "", err
	}
	levels, err := parseCostLevels(costLevels)
	if err != nil {
		return workflow.Request{}, "", err
	}

	city := cityName
	if city == "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return workflow.Request{}, "", err
		}
		city = filepath.Base(abs)
	}
	state, err := workflow.NewState().WithCity(city).WithParams(params)
	if err != nil {
		return workflow.Request{}, "", err
	}
	if state, err = state.WithCosts(levels, carbon); err != nil {
		return workflow.Request{}, "", err
	}
	req, err := state.Request(in, threshold)
	if err != nil {
		return workflow.Request{}, "", err
	}
	if zonesPath != "" {
		if req.Zones, err = loadZones(zonesPath, in); err != nil {
			return workflow.Request{}, "", err
		}
	}
	return req, preset, nil
}

func scenarioParams() (heatindex.Params, string, error) {
	if presetName == "" {
		params, err := heatindex.NewParams(canopyPct, roofPct, parkPct)
		return params, "custom", err
	}
	p, ok := planning.PresetByName(presetName)
	if !ok {
		return heatindex.Params{}, "", fmt.Errorf("unknown preset %q", presetName)
	}
	params, err := p.Params()
	return params, p.Name, err
}

func parseCostLevels(pairs []string) (map[heatindex.Intervention]planning.CostLevel, error) {
	out := make(map[heatindex.Intervention]planning.CostLevel, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cost level %q, want intervention=level", kv)
		}
		it, err := heatindex.ParseIntervention(k)
		if err != nil {
			return nil, err
		}
		lvl, err := planning.ParseCostLevel(v)
		if err != nil {
			return nil, err
		}
		out[it] = lvl
	}
	return out, nil
}

func loadZones(path string, in workflow.Inputs) ([]heatindex.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("zones %s: %w", path, err)
	}
	rows, cols := in.B.Shape()
	return geo.ZonesFromCollection(fc, in.Transform, rows, cols)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
