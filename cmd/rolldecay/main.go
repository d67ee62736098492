package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/hydrolab/rolldecay/internal/batch"
	"github.com/hydrolab/rolldecay/internal/config"
	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/estimator"
	"github.com/hydrolab/rolldecay/internal/motion"
	"github.com/hydrolab/rolldecay/internal/report"
	"github.com/hydrolab/rolldecay/internal/spectral"
	"github.com/hydrolab/rolldecay/internal/storage"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	dataDir string
	// Simulation
	duration   float64
	samples    int
	phi0       float64
	phi1d0     float64
	paramFlags []string
	outFile    string
	// Fit selection
	method     string
	integrator string
	fixedOmega bool
	maxEval    int
	tolerance  float64
	guessFlags []string
	boundFlags []string
	noAssert   bool
	saveRun    bool
	// Preprocessing
	cutMax    float64
	cutMin    float64
	lowpassHz float64
	// Ship metadata
	volume  float64
	gm      float64
	rho     float64
	gravity float64
	// Config file and preset
	configFile string
	preset     string
	// Export format
	format string
)

// main registers the rolldecay commands and flags and executes the root
// command, exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "rolldecay",
		Short: "ship roll decay parameter estimation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rolldecay", "run directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate [variant]",
		Short: "integrate a decay forward and plot it",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateVariant,
	}
	simulateCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration [s]")
	simulateCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	simulateCmd.Flags().Float64Var(&phi0, "phi0", config.DefaultPhi0, "initial roll angle [rad]")
	simulateCmd.Flags().Float64Var(&phi1d0, "phi1d0", 0.0, "initial roll rate [rad/s]")
	simulateCmd.Flags().StringArrayVar(&paramFlags, "param", nil, "coefficient value, name=value")
	simulateCmd.Flags().StringVar(&integrator, "integrator", estimator.IntegratorRK45, "integrator")
	simulateCmd.Flags().StringVar(&outFile, "out", "", "write the series to a CSV file")
	simulateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	simulateCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	fitCmd := &cobra.Command{
		Use:   "fit [variant] [file]",
		Short: "fit a variant to a recorded decay",
		Args:  cobra.ExactArgs(2),
		RunE:  fitSeries,
	}
	fitCmd.Flags().StringVar(&method, "method", "", "fit method (derivation or integration)")
	fitCmd.Flags().StringVar(&integrator, "integrator", "", "integrator")
	fitCmd.Flags().BoolVar(&fixedOmega, "fixed-omega", false, "pin the natural frequency to the spectral estimate")
	fitCmd.Flags().IntVar(&maxEval, "max-eval", 0, "residual evaluation budget")
	fitCmd.Flags().Float64Var(&tolerance, "tol", 0, "relative cost tolerance")
	fitCmd.Flags().StringArrayVar(&guessFlags, "guess", nil, "starting guess, name=value")
	fitCmd.Flags().StringArrayVar(&boundFlags, "bound", nil, "coefficient bound, name=min,max")
	fitCmd.Flags().BoolVar(&noAssert, "no-assert", false, "keep a fit that missed its convergence criterion")
	fitCmd.Flags().BoolVar(&saveRun, "save", false, "persist the fit as a run")
	fitCmd.Flags().Float64Var(&cutMax, "cut-max", 0, "drop samples above this amplitude [rad]")
	fitCmd.Flags().Float64Var(&cutMin, "cut-min", 0, "drop trailing samples below this amplitude [rad]")
	fitCmd.Flags().Float64Var(&lowpassHz, "lowpass", 0, "lowpass cutoff [Hz]")
	fitCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	predictCmd := &cobra.Command{
		Use:   "predict [run_id] [file]",
		Short: "replay a stored fit against a recorded decay",
		Args:  cobra.ExactArgs(2),
		RunE:  predictRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "spectral and peak analysis of a recorded decay",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeSeries,
	}
	analyzeCmd.Flags().Float64Var(&lowpassHz, "lowpass", 0, "lowpass cutoff [Hz]")

	compareCmd := &cobra.Command{
		Use:   "compare [file]",
		Short: "fit every variant to the same decay",
		Args:  cobra.ExactArgs(1),
		RunE:  compareAll,
	}
	compareCmd.Flags().StringVar(&method, "method", "", "force one fit method for every variant")
	compareCmd.Flags().IntVar(&maxEval, "max-eval", 0, "residual evaluation budget")

	dimensionCmd := &cobra.Command{
		Use:   "dimension [run_id]",
		Short: "convert a stored fit to dimensional coefficients",
		Args:  cobra.ExactArgs(1),
		RunE:  dimensionRun,
	}
	dimensionCmd.Flags().Float64Var(&volume, "volume", 0, "displaced volume [m^3]")
	dimensionCmd.Flags().Float64Var(&gm, "gm", 0, "metacentric height [m]")
	dimensionCmd.Flags().Float64Var(&rho, "rho", config.DefaultRho, "water density [kg/m^3]")
	dimensionCmd.Flags().Float64Var(&gravity, "g", config.DefaultG, "gravity [m/s^2]")
	dimensionCmd.Flags().StringVar(&configFile, "config", "", "config file with ship metadata (yaml)")

	batchCmd := &cobra.Command{
		Use:   "batch [campaign]",
		Short: "run a YAML fit campaign",
		Args:  cobra.ExactArgs(1),
		RunE:  runCampaign,
	}
	batchCmd.Flags().BoolVar(&saveRun, "save", false, "persist every successful fit")

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list configuration presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				names := config.ListPresets(args[0])
				if len(names) == 0 {
					fmt.Printf("no presets for variant: %s\n", args[0])
					return nil
				}
				fmt.Printf("presets for %s:\n", args[0])
				for _, name := range names {
					fmt.Printf("  %s\n", name)
				}
				return nil
			}
			for _, v := range equations.Variants() {
				names := config.ListPresets(string(v))
				if len(names) == 0 {
					continue
				}
				fmt.Printf("%s:\n", v)
				for _, name := range names {
					fmt.Printf("  %s\n", name)
				}
			}
			return nil
		},
	}

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list the damping model variants",
		RunE:  listVariants,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format (json, csv, or svg)")

	rootCmd.AddCommand(simulateCmd, fitCmd, predictCmd, analyzeCmd, compareCmd,
		dimensionCmd, batchCmd, presetsCmd, variantsCmd, runsCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simulateVariant(cmd *cobra.Command, args []string) error {
	variant := equations.Variant(args[0])
	desc, err := equations.Get(variant)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if preset != "" {
		cfg = config.GetPreset(args[0], preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override preset and config values.
	if cfg != nil {
		if !cmd.Flags().Changed("time") && cfg.Simulation.Duration > 0 {
			duration = cfg.Simulation.Duration
		}
		if !cmd.Flags().Changed("samples") && cfg.Simulation.Samples > 0 {
			samples = cfg.Simulation.Samples
		}
		if !cmd.Flags().Changed("phi0") && cfg.Simulation.Phi0 != 0 {
			phi0 = cfg.Simulation.Phi0
		}
		if !cmd.Flags().Changed("phi1d0") {
			phi1d0 = cfg.Simulation.Phi1d0
		}
		if !cmd.Flags().Changed("integrator") && cfg.Integrator != "" {
			integrator = cfg.Integrator
		}
	}

	p := equations.Params{}
	if cfg != nil {
		for name, v := range cfg.Simulation.Parameters {
			p[name] = v
		}
	}
	flagParams, err := parseAssignments(paramFlags)
	if err != nil {
		return err
	}
	for name, v := range flagParams {
		p[name] = v
	}
	if len(p) == 0 {
		return fmt.Errorf("no coefficients given; %s needs %s (use --param or a preset)",
			variant, strings.Join(desc.Coefficients, ", "))
	}

	est, err := estimator.New(variant, estimator.WithIntegrator(integrator))
	if err != nil {
		return err
	}

	grid, err := timeGrid(duration, samples)
	if err != nil {
		return err
	}

	fmt.Printf("simulating %s decay (%.1fs, %d samples)...\n\n", variant, duration, samples)
	x, err := est.Simulate(grid, phi0, phi1d0, p)
	if err != nil {
		return err
	}

	graph := asciigraph.Plot(degrees(x.Phi),
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("roll angle [deg]"),
	)
	fmt.Println(graph)
	fmt.Println()

	if omega := desc.NaturalFrequency(p); omega > 0 {
		fmt.Printf("natural frequency: %.4f rad/s (period %.2f s)\n", omega, 2*math.Pi/omega)
	}
	fmt.Printf("peaks: %d\n", len(motion.Peaks(x)))
	if decr, err := motion.LogarithmicDecrement(x); err == nil {
		fmt.Printf("log decrement: %.4f (equivalent zeta %.4f)\n", decr, motion.DampingRatio(decr))
	}
	fmt.Printf("final amplitude: %.3f deg\n", math.Abs(x.Phi[len(x.Phi)-1])*180/math.Pi)

	if outFile != "" {
		if err := motion.WriteCSV(outFile, x); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
	}
	return nil
}

func fitSeries(cmd *cobra.Command, args []string) error {
	variant := equations.Variant(args[0])

	var opts []estimator.Option
	if preset != "" {
		cfg := config.GetPreset(args[0], preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
		}
		opts = cfg.EstimatorOptions()
	}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		opts = cfg.EstimatorOptions()
	}

	// Flag options land after the preset/config ones, so scalars
	// override and maps merge.
	if method != "" {
		opts = append(opts, estimator.WithMethod(method))
	}
	if integrator != "" {
		opts = append(opts, estimator.WithIntegrator(integrator))
	}
	if maxEval > 0 {
		opts = append(opts, estimator.WithMaxEvaluations(maxEval))
	}
	if tolerance > 0 {
		opts = append(opts, estimator.WithTolerance(tolerance))
	}
	if len(guessFlags) > 0 {
		guesses, err := parseAssignments(guessFlags)
		if err != nil {
			return err
		}
		opts = append(opts, estimator.WithGuesses(guesses))
	}
	if len(boundFlags) > 0 {
		bounds, err := parseBounds(boundFlags)
		if err != nil {
			return err
		}
		opts = append(opts, estimator.WithBounds(bounds))
	}
	if fixedOmega {
		opts = append(opts, estimator.WithFixedOmega())
	}
	if noAssert {
		opts = append(opts, estimator.WithoutSuccessAssertion())
	}

	est, err := estimator.New(variant, opts...)
	if err != nil {
		return err
	}

	x, err := motion.ReadCSV(args[1])
	if err != nil {
		return err
	}
	x, err = preprocessSeries(x, est.Method())
	if err != nil {
		return err
	}

	fmt.Printf("fitting %s to %s (%d samples)...\n\n", variant, args[1], len(x.T))
	if err := est.Fit(x); err != nil {
		return err
	}
	fit, err := est.Fitted()
	if err != nil {
		return err
	}
	score, err := est.Score(x)
	if err != nil {
		return err
	}

	fmt.Println(report.FitReport(fit, score))

	if saveRun {
		predicted, err := est.Predict(x)
		if err != nil {
			return err
		}
		st := storage.New(dataDir)
		runID, err := st.SaveRun(fit, score, x, predicted)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func preprocessSeries(x motion.Series, fitMethod string) (motion.Series, error) {
	var err error
	if lowpassHz > 0 {
		x, err = motion.Lowpass(x, lowpassHz)
		if err != nil {
			return motion.Series{}, err
		}
	}
	if cutMax > 0 || cutMin > 0 {
		x, err = motion.Cut(x, cutMax, cutMin)
		if err != nil {
			return motion.Series{}, err
		}
	}
	if fitMethod == equations.MethodDerivation && !x.HasDerivatives() {
		x, err = motion.Derivatives(x)
		if err != nil {
			return motion.Series{}, err
		}
	}
	return x, nil
}

func predictRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	x, err := motion.ReadCSV(args[1])
	if err != nil {
		return err
	}

	est, err := estimator.New(equations.Variant(meta.Variant))
	if err != nil {
		return err
	}
	rate := 0.0
	if len(x.Phi1d) > 0 {
		rate = x.Phi1d[0]
	}
	pred, err := est.Simulate(x.T, x.Phi[0], rate, equations.Params(meta.Parameters))
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s, %s)\n", meta.ID, meta.Variant, meta.Method)
	fmt.Printf("samples: %d\n\n", len(x.T))

	graph := asciigraph.PlotMany([][]float64{degrees(x.Phi), degrees(pred.Phi)},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("observed vs predicted [deg]"),
	)
	fmt.Println(graph)

	maxDev := 0.0
	for i := range x.Phi {
		if dev := math.Abs(pred.Phi[i] - x.Phi[i]); dev > maxDev {
			maxDev = dev
		}
	}
	fmt.Printf("\nagreement: %s\n", report.ScoreText(stat.RSquaredFrom(pred.Phi, x.Phi, nil)))
	fmt.Printf("max deviation: %.3f deg\n", maxDev*180/math.Pi)
	return nil
}

func analyzeSeries(cmd *cobra.Command, args []string) error {
	x, err := motion.ReadCSV(args[0])
	if err != nil {
		return err
	}
	if lowpassHz > 0 {
		x, err = motion.Lowpass(x, lowpassHz)
		if err != nil {
			return err
		}
	}

	freqs, power, err := spectral.PowerSpectrum(x.T, x.Phi)
	if err != nil {
		return err
	}

	fmt.Printf("spectral analysis: %s (%d samples, %.1fs)\n\n", args[0], len(x.T), x.Duration())

	quarter := len(power) / 4
	if quarter < 8 {
		quarter = len(power)
	}
	graph := asciigraph.Plot(power[:quarter],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("spectrum magnitude (0 to %.3f Hz)", freqs[quarter-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	omega, err := spectral.NaturalFrequency(x.T, x.Phi)
	if err != nil {
		return err
	}
	fmt.Printf("natural frequency: %.4f rad/s (%.4f Hz, period %.2f s)\n",
		omega, omega/(2*math.Pi), 2*math.Pi/omega)

	fmt.Printf("peaks: %d\n", len(motion.Peaks(x)))
	if decr, err := motion.LogarithmicDecrement(x); err == nil {
		fmt.Printf("log decrement: %.4f (equivalent zeta %.4f)\n", decr, motion.DampingRatio(decr))
	}
	return nil
}

func compareAll(cmd *cobra.Command, args []string) error {
	x, err := motion.ReadCSV(args[0])
	if err != nil {
		return err
	}

	var opts []estimator.Option
	if method != "" {
		opts = append(opts, estimator.WithMethod(method))
	}
	if maxEval > 0 {
		opts = append(opts, estimator.WithMaxEvaluations(maxEval))
	}

	fmt.Printf("comparing variants on %s (%d samples)\n\n", args[0], len(x.T))
	comparisons, err := batch.CompareVariants(x, opts...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tMETHOD\tSCORE\tEVALS\tSTATUS")
	for _, c := range comparisons {
		if c.Err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\terror: %v\n", c.Variant, c.Err)
			continue
		}
		status := "converged"
		if !c.Fit.Converged {
			status = "not converged"
		}
		fmt.Fprintf(w, "%s\t%s\t%.6f\t%d\t%s\n",
			c.Variant, c.Fit.Method, c.Score, c.Fit.Evaluations, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best := -1
	for i, c := range comparisons {
		if c.Err != nil || !c.Fit.Converged {
			continue
		}
		if best < 0 || c.Score > comparisons[best].Score {
			best = i
		}
	}
	if best >= 0 {
		fmt.Printf("\nbest: %s (score %s)\n",
			comparisons[best].Variant, report.ScoreText(comparisons[best].Score))
	}
	return nil
}

func dimensionRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ship := cfg.Metadata()
		if !cmd.Flags().Changed("volume") {
			volume = ship.Volume
		}
		if !cmd.Flags().Changed("gm") {
			gm = ship.GM
		}
		if !cmd.Flags().Changed("rho") && ship.Rho != 0 {
			rho = ship.Rho
		}
		if !cmd.Flags().Changed("g") && ship.G != 0 {
			gravity = ship.G
		}
	}

	ship := estimator.ShipMetadata{Volume: volume, GM: gm, Rho: rho, G: gravity}
	out, err := estimator.Dimensional(equations.Variant(meta.Variant), equations.Params(meta.Parameters), ship)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n", meta.ID, meta.Variant)
	fmt.Printf("volume: %.1f m^3, gm: %.3f m, rho: %.1f kg/m^3, g: %.4f m/s^2\n\n",
		volume, gm, rho, gravity)

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", name, out[name])
	}
	return w.Flush()
}

func runCampaign(cmd *cobra.Command, args []string) error {
	campaign, err := batch.LoadCampaign(args[0])
	if err != nil {
		return err
	}
	if campaign.Name != "" {
		fmt.Printf("campaign: %s (%d steps)\n", campaign.Name, len(campaign.Steps))
	}

	var store *storage.Store
	if saveRun {
		store = storage.New(dataDir)
	}

	outcomes, err := batch.RunCampaign(context.Background(), campaign, store)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Println("campaign has no steps")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSAMPLES\tSCORE\tRUN\tSTATUS")
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			fmt.Fprintf(w, "%s\t-\t-\t-\terror: %v\n", out.Step, out.Err)
			continue
		}
		runID := out.RunID
		if runID == "" {
			runID = "-"
		}
		status := "converged"
		if !out.Fit.Converged {
			status = "not converged"
		}
		fmt.Fprintf(w, "%s\t%d\t%.6f\t%s\t%s\n", out.Step, out.Samples, out.Score, runID, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted %d/%d steps\n", len(outcomes)-failed, len(outcomes))
	return nil
}

func listVariants(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOEFFICIENTS\tDEFAULT METHOD\tNON-NEGATIVE")
	for _, v := range equations.Variants() {
		desc, err := equations.Get(v)
		if err != nil {
			return err
		}
		nonNeg := "-"
		if len(desc.NonNegative) > 0 {
			nonNeg = strings.Join(desc.NonNegative, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			v, strings.Join(desc.Coefficients, ", "), desc.DefaultMethod, nonNeg)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tVARIANT\tMETHOD\tTIME\tSCORE\tCONVERGED\tEVALS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6f\t%v\t%d\n",
			run.ID,
			run.Variant,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Score,
			run.Converged,
			run.Evaluations,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	switch format {
	case "json":
		return st.ExportJSON(os.Stdout, args[0])
	case "csv":
		return st.ExportCSV(os.Stdout, args[0])
	case "svg":
		return st.ExportSVG(os.Stdout, args[0])
	default:
		return fmt.Errorf("unknown format: %s (json, csv, or svg)", format)
	}
}

func parseAssignments(pairs []string) (equations.Params, error) {
	out := equations.Params{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad assignment %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value in %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func parseBounds(pairs []string) (map[string][2]float64, error) {
	out := make(map[string][2]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad bound %q, want name=min,max", pair)
		}
		lo, hi, ok := strings.Cut(value, ",")
		if !ok {
			return nil, fmt.Errorf("bad bound %q, want name=min,max", pair)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("bad bound in %q: %w", pair, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("bad bound in %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = [2]float64{low, high}
	}
	return out, nil
}

func timeGrid(duration float64, samples int) ([]float64, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", duration)
	}
	if samples < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", samples)
	}
	grid := make([]float64, samples)
	step := duration / float64(samples-1)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	return grid, nil
}

func degrees(rad []float64) []float64 {
	out := make([]float64, len(rad))
	for i, v := range rad {
		out[i] = v * 180 / math.Pi
	}
	return out
}
