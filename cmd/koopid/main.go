package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/analysis"
	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/experiment"
	"github.com/san-kum/koopid/internal/fit"
	"github.com/san-kum/koopid/internal/integrators"
	"github.com/san-kum/koopid/internal/koopman"
	"github.com/san-kum/koopid/internal/logging"
	"github.com/san-kum/koopid/internal/storage"
)

const envPrefix = "KOOPID"

var (
	v         = viper.New()
	verbosity int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "koopid",
		Short:         "koopman-lifted system identification",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v.SetEnvPrefix(envPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			return v.BindPFlags(cmd.Flags())
		},
	}

	rootCmd.PersistentFlags().String("data", ".koopid", "checkpoint directory")
	rootCmd.PersistentFlags().String("config", "", "run config file (yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (-v debug, -vv trace)")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "generate data from a plant, train a model and save a checkpoint",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	addRunFlags(fitCmd)
	fitCmd.Flags().Bool("no-save", false, "do not write a checkpoint")

	compareCmd := &cobra.Command{
		Use:   "compare [preset...]",
		Short: "train several presets on the same data and rank them",
		RunE:  runCompare,
	}
	addRunFlags(compareCmd)

	predictCmd := &cobra.Command{
		Use:   "predict [checkpoint]",
		Short: "roll a saved model forward from an observation",
		Args:  cobra.ExactArgs(1),
		RunE:  runPredict,
	}
	predictCmd.Flags().String("obs", "", "initial observation, comma separated")
	predictCmd.Flags().String("ctrl", "", "control sequence, vectors separated by ';'")

	linearizeCmd := &cobra.Command{
		Use:   "linearize [checkpoint]",
		Short: "print the lifted A and B matrices of a saved model",
		Args:  cobra.ExactArgs(1),
		RunE:  runLinearize,
	}
	linearizeCmd.Flags().Float64("dt", config.DefaultDt, "sample interval used for continuous-time modes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list checkpoints",
		RunE:  listCheckpoints,
	}

	spaceCmd := &cobra.Command{
		Use:   "space",
		Short: "show the model configuration space",
		RunE:  showSpace,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list model presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tACTIVE")
			for _, name := range config.ListPresets() {
				o, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, o.Method, strings.Join(o.Active(), ","))
			}
			return w.Flush()
		},
	}

	plantsCmd := &cobra.Command{
		Use:   "plants",
		Short: "list reference plants",
		RunE:  listPlants,
	}
	plantsCmd.Flags().Float64("dt", config.DefaultDt, "sample interval")
	plantsCmd.Flags().String("integrator", config.DefaultIntegrator, "integrator for continuous plants")
	plantsCmd.Flags().Int("steps", 2000, "samples used for the Lyapunov estimate")

	rootCmd.AddCommand(fitCmd, compareCmd, predictCmd, linearizeCmd, listCmd, spaceCmd, presetsCmd, plantsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Render("error:"), err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("plant", config.DefaultPlant, "reference plant")
	f.StringToString("param", nil, "plant parameter overrides (name=value)")
	f.String("integrator", config.DefaultIntegrator, "integrator for continuous plants ("+strings.Join(integrators.Names(), ", ")+")")
	f.Int("trajectories", config.DefaultTrajectories, "number of rollouts")
	f.Int("length", config.DefaultLength, "steps per rollout")
	f.Float64("dt", config.DefaultDt, "sample interval")
	f.Int64("seed", 0, "random seed")
	f.Float64("excitation", config.DefaultExcitation, "control amplitude")
	f.Float64("init-spread", config.DefaultInitSpread, "initial state spread")
	f.Int("holdout", config.DefaultHoldout, "rollouts held out for scoring")
	f.Int("horizon", config.DefaultHorizon, "multi-step scoring horizon")

	f.String("preset", "", "model preset")
	f.String("method", string(fit.LeastSquares), "fit method ("+strings.Join(methodNames(), ", ")+")")
	f.Float64("alpha", config.DefaultAlphaLog10, "log10 lasso penalty")
	f.Bool("poly", false, "enable polynomial basis")
	f.Int("poly-degree", config.DefaultPolyDegree, "polynomial degree")
	f.Bool("trig", false, "enable trigonometric basis")
	f.Int("trig-freq", config.DefaultTrigFreq, "trigonometric frequencies")
	f.Bool("products", false, "append pairwise products")
}

func methodNames() []string {
	ms := fit.Methods()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}

func logger() logr.Logger {
	return logging.NewStderr(verbosity)
}

// resolveConfig layers defaults, the config file, a preset, and finally
// explicitly set flags or KOOPID_* environment variables.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if name := v.GetString("preset"); name != "" {
		opts, ok := config.GetPreset(name)
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cfg.Model = opts
	}

	if v.IsSet("plant") {
		cfg.Plant = v.GetString("plant")
	}
	if v.IsSet("integrator") {
		cfg.Integrator = v.GetString("integrator")
	}
	if v.IsSet("trajectories") {
		cfg.Trajectories = v.GetInt("trajectories")
	}
	if v.IsSet("length") {
		cfg.Length = v.GetInt("length")
	}
	if v.IsSet("dt") {
		cfg.Dt = v.GetFloat64("dt")
	}
	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("excitation") {
		cfg.Excitation = v.GetFloat64("excitation")
	}
	if v.IsSet("init-spread") {
		cfg.InitSpread = v.GetFloat64("init-spread")
	}
	if v.IsSet("holdout") {
		cfg.Holdout = v.GetInt("holdout")
	}
	if v.IsSet("horizon") {
		cfg.Horizon = v.GetInt("horizon")
	}

	if v.IsSet("method") {
		m, err := fit.ParseMethod(v.GetString("method"))
		if err != nil {
			return nil, err
		}
		cfg.Model.Method = m
	}
	if v.IsSet("alpha") {
		cfg.Model.LassoAlphaLog10 = v.GetFloat64("alpha")
	}
	if v.IsSet("poly") {
		cfg.Model.PolyBasis = v.GetBool("poly")
	}
	if v.IsSet("poly-degree") {
		cfg.Model.PolyDegree = v.GetInt("poly-degree")
	}
	if v.IsSet("trig") {
		cfg.Model.TrigBasis = v.GetBool("trig")
	}
	if v.IsSet("trig-freq") {
		cfg.Model.TrigFreq = v.GetInt("trig-freq")
	}
	if v.IsSet("products") {
		cfg.Model.ProductTerms = v.GetBool("products")
	}

	params, err := cmd.Flags().GetStringToString("param")
	if err != nil {
		return nil, err
	}
	for name, raw := range params {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		if cfg.PlantParams == nil {
			cfg.PlantParams = make(map[string]float64)
		}
		cfg.PlantParams[name] = val
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := logger()

	exp, err := experiment.New(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	fmt.Println(subtle.Render(fmt.Sprintf("fitting %s on %s...", cfg.Model.Method, cfg.Plant)))
	res, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	lifted, ctrl := res.Model.Dims()
	rows := []row{
		{"plant", cfg.Plant},
		{"method", string(cfg.Model.Method)},
		{"active options", strings.Join(cfg.Model.Active(), ", ")},
		{"lifted dim", strconv.Itoa(lifted)},
		{"control dim", strconv.Itoa(ctrl)},
		{"train / holdout", fmt.Sprintf("%d / %d", len(res.Data.Train), len(res.Data.Holdout))},
		{"one-step rmse", fmtFloat(res.Metrics[experiment.MetricOneStep])},
		{fmt.Sprintf("%d-step rmse", cfg.Horizon), fmtFloat(res.Metrics[experiment.MetricRollout])},
		{"spectral radius", stability(res.Metrics[experiment.MetricSpectralRadius])},
		{"elapsed", res.Duration.Round(time.Millisecond).String()},
	}
	for _, name := range sortedKeys(res.Data.Metrics) {
		rows = append(rows, row{"data " + name, fmtFloat(res.Data.Metrics[name])})
	}

	noSave, _ := cmd.Flags().GetBool("no-save")
	if !noSave {
		st := storage.New(v.GetString("data"))
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(res.Model, storage.Metadata{Plant: cfg.Plant, Seed: cfg.Seed, Metrics: res.Metrics})
		if err != nil {
			return err
		}
		rows = append(rows, row{"checkpoint", good.Render(id)})
	}

	fmt.Println(card("koopman model", rows))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	candidates := experiment.PresetCandidates()
	if len(args) > 0 {
		candidates = candidates[:0]
		for _, name := range args {
			opts, ok := config.GetPreset(name)
			if !ok {
				return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
			}
			candidates = append(candidates, experiment.Candidate{Name: name, Options: opts})
		}
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(logger()))
	if err != nil {
		return err
	}
	outcomes, err := exp.Compare(context.Background(), candidates)
	if err != nil {
		return err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		if (outcomes[i].Err == nil) != (outcomes[j].Err == nil) {
			return outcomes[i].Err == nil
		}
		if outcomes[i].Err != nil {
			return false
		}
		return outcomes[i].Metrics[experiment.MetricRollout] < outcomes[j].Metrics[experiment.MetricRollout]
	})

	fmt.Println(title.Render(fmt.Sprintf("presets on %s (%d-step horizon)", cfg.Plant, cfg.Horizon)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMETHOD\tLIFTED\tONE-STEP\tROLLOUT")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t-\t%s\t\n", o.Name, o.Options.Method, bad.Render(o.Err.Error()))
			continue
		}
		lifted, _ := o.Model.Dims()
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", o.Name, o.Options.Method, lifted,
			fmtFloat(o.Metrics[experiment.MetricOneStep]), fmtFloat(o.Metrics[experiment.MetricRollout]))
	}
	return w.Flush()
}

func runPredict(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	m, meta, err := st.Restore(args[0], koopmanLogger())
	if err != nil {
		return err
	}

	obs, err := parseVector(v.GetString("obs"))
	if err != nil {
		return fmt.Errorf("obs: %w", err)
	}
	var ctrls []dynamo.Control
	if raw := v.GetString("ctrl"); raw != "" {
		for i, part := range strings.Split(raw, ";") {
			u, err := parseVector(part)
			if err != nil {
				return fmt.Errorf("ctrl %d: %w", i, err)
			}
			ctrls = append(ctrls, dynamo.Control(u))
		}
	}
	if len(ctrls) == 0 {
		ctrls = []dynamo.Control{make(dynamo.Control, len(meta.Controls))}
	}

	states, err := m.Rollout(dynamo.State(obs), ctrls)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STEP\t%s\t%s\n", strings.Join(meta.Controls, "\t"), strings.Join(meta.Observations, "\t"))
	for i, s := range states {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, joinFloats(ctrls[i]), joinFloats(s))
	}
	return w.Flush()
}

func runLinearize(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	m, meta, err := st.Restore(args[0], koopmanLogger())
	if err != nil {
		return err
	}
	ls, err := m.Linearization()
	if err != nil {
		return err
	}

	fmt.Println(card(meta.ID, []row{
		{"plant", meta.Plant},
		{"method", string(meta.Options.Method)},
		{"features", strings.Join(m.FeatureNames(), ", ")},
	}))
	fmt.Printf("\nA =\n%v\n\nB =\n%v\n\n", mat.Formatted(ls.A, mat.Squeeze()), mat.Formatted(ls.B, mat.Squeeze()))

	dt, _ := cmd.Flags().GetFloat64("dt")
	spec, err := analysis.Spectrum(ls.A, dt)
	if err != nil {
		return err
	}
	fmt.Println(title.Render("modes"), stability(spec.Radius))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EIGENVALUE\t|λ|\tGROWTH\tFREQUENCY")
	for _, mode := range spec.Modes {
		fmt.Fprintf(w, "%.4g\t%s\t%s\t%s\n", mode.Eigenvalue, fmtFloat(mode.Magnitude), fmtFloat(mode.Growth), fmtFloat(mode.Frequency))
	}
	return w.Flush()
}

// stability renders a spectral radius coloured by whether it is inside the
// unit circle.
func stability(rho float64) string {
	if rho < 1 {
		return good.Render(fmtFloat(rho) + " stable")
	}
	return bad.Render(fmtFloat(rho) + " unstable")
}

func listCheckpoints(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no checkpoints found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tMETHOD\tACTIVE\tROLLOUT RMSE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Options.Method,
			strings.Join(run.Options.Active(), ","),
			fmtFloat(run.Metrics[experiment.MetricRollout]),
		)
	}
	return w.Flush()
}

func showSpace(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tRANGE\tDEFAULT\tCONDITION")
	for _, h := range config.Space() {
		var rng string
		switch h.Kind {
		case config.Categorical:
			rng = "{" + strings.Join(h.Choices, ", ") + "}"
		case config.Integer, config.Float:
			rng = fmt.Sprintf("[%v, %v]", h.Lower, h.Upper)
		default:
			rng = "-"
		}
		cond := ""
		if h.Conditional() {
			cond = fmt.Sprintf("%s == %v", h.Parent, h.ParentValue)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", h.Name, h.Kind, rng, h.Default, cond)
	}
	return w.Flush()
}

func listPlants(cmd *cobra.Command, args []string) error {
	dt := v.GetFloat64("dt")
	integrator := v.GetString("integrator")
	steps := v.GetInt("steps")

	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLANT\tOBSERVATIONS\tCONTROLS\tLYAPUNOV\tPARAMS")
	for _, name := range reg.ListPlants() {
		p, err := reg.GetPlant(name, nil)
		if err != nil {
			return err
		}
		var params []string
		if c, ok := p.(dynamo.Configurable); ok {
			values := c.GetParams()
			for _, k := range sortedKeys(values) {
				params = append(params, fmt.Sprintf("%s=%g", k, values[k]))
			}
		}
		dp, err := experiment.Discrete(p, integrator, dt)
		if err != nil {
			return err
		}
		lambda := analysis.LyapunovExponent(dp, p.DefaultState(), steps, dt, 1e-8)

		sys := p.System()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name,
			strings.Join(sys.Observations(), ","), strings.Join(sys.Controls(), ","), fmtFloat(lambda), strings.Join(params, " "))
	}
	return w.Flush()
}

func koopmanLogger() koopman.Option {
	return koopman.WithLogger(logger())
}

func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty vector")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmtFloat(x)
	}
	return strings.Join(parts, "\t")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
