package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/estimator"
	"github.com/hydrolab/rolldecay/internal/motion"
	"github.com/hydrolab/rolldecay/internal/storage"
	"gopkg.in/yaml.v3"
)

// Campaign defines a scripted sequence of decay fits.
type Campaign struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single record-and-fit in a campaign.
type Step struct {
	Name           string                `yaml:"name"`
	File           string                `yaml:"file"`
	Variant        string                `yaml:"variant"`
	Method         string                `yaml:"method"`
	FixedOmega     bool                  `yaml:"fixed_omega"`
	MaxEvaluations int                   `yaml:"max_evaluations"`
	Guesses        map[string]float64    `yaml:"guesses"`
	Bounds         map[string][2]float64 `yaml:"bounds"`
	Cut            *CutSpec              `yaml:"cut"`
	LowpassHz      float64               `yaml:"lowpass_hz"`
}

// CutSpec bounds the amplitude window kept for fitting, in radians.
type CutSpec struct {
	PhiMax float64 `yaml:"phi_max"`
	PhiMin float64 `yaml:"phi_min"`
}

func (s Step) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.File
}

// Outcome reports one step of a campaign. Err is set when the step
// failed anywhere between reading the record and persisting the fit;
// the other result fields are only meaningful while Err is nil.
type Outcome struct {
	Step    string
	File    string
	Fit     estimator.FitResult
	Score   float64
	Samples int
	RunID   string
	Err     error
}

// LoadCampaign loads a campaign from a YAML file.
func LoadCampaign(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var campaign Campaign
	if err := yaml.Unmarshal(data, &campaign); err != nil {
		return nil, err
	}

	return &campaign, nil
}

// RunCampaign executes all steps in a campaign. A failing step is
// recorded in its outcome and the remaining steps still run; only
// context cancellation stops the campaign early. When store is non-nil
// every successful fit is persisted and its run ID recorded.
func RunCampaign(ctx context.Context, campaign *Campaign, store *storage.Store) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(campaign.Steps))

	for i, step := range campaign.Steps {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		fmt.Printf("Running step %d/%d: %s\n", i+1, len(campaign.Steps), step.label())

		out := runStep(step, store)
		if out.Err != nil {
			fmt.Printf("  step failed: %v\n", out.Err)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

func runStep(step Step, store *storage.Store) Outcome {
	out := Outcome{Step: step.label(), File: step.File}

	est, err := estimator.New(equations.Variant(step.Variant), step.estimatorOptions()...)
	if err != nil {
		out.Err = err
		return out
	}

	series, err := motion.ReadCSV(step.File)
	if err != nil {
		out.Err = err
		return out
	}

	series, err = preprocess(series, step, est.Method())
	if err != nil {
		out.Err = err
		return out
	}
	out.Samples = len(series.T)

	if err := est.Fit(series); err != nil {
		out.Err = err
		return out
	}

	fit, err := est.Fitted()
	if err != nil {
		out.Err = err
		return out
	}
	out.Fit = fit

	score, err := est.Score(series)
	if err != nil {
		out.Err = err
		return out
	}
	out.Score = score

	if store != nil {
		predicted, err := est.Predict(series)
		if err != nil {
			out.Err = err
			return out
		}
		runID, err := store.SaveRun(fit, score, series, predicted)
		if err != nil {
			out.Err = err
			return out
		}
		out.RunID = runID
	}

	return out
}

// preprocess filters, trims, and differentiates a record as the step
// requests. The lowpass runs before the cut so that the amplitude
// window is decided on the smoothed angle. Numeric derivatives are
// only added when the fit method reads them and the record lacks them.
func preprocess(s motion.Series, step Step, method string) (motion.Series, error) {
	var err error

	if step.LowpassHz > 0 {
		s, err = motion.Lowpass(s, step.LowpassHz)
		if err != nil {
			return motion.Series{}, err
		}
	}
	if step.Cut != nil {
		s, err = motion.Cut(s, step.Cut.PhiMax, step.Cut.PhiMin)
		if err != nil {
			return motion.Series{}, err
		}
	}

	if method == equations.MethodDerivation && !s.HasDerivatives() {
		s, err = motion.Derivatives(s)
		if err != nil {
			return motion.Series{}, err
		}
	}
	return s, nil
}

func (s Step) estimatorOptions() []estimator.Option {
	var opts []estimator.Option
	if s.Method != "" {
		opts = append(opts, estimator.WithMethod(s.Method))
	}
	if s.MaxEvaluations > 0 {
		opts = append(opts, estimator.WithMaxEvaluations(s.MaxEvaluations))
	}
	if len(s.Bounds) > 0 {
		opts = append(opts, estimator.WithBounds(s.Bounds))
	}
	if len(s.Guesses) > 0 {
		opts = append(opts, estimator.WithGuesses(equations.Params(s.Guesses)))
	}
	if s.FixedOmega {
		opts = append(opts, estimator.WithFixedOmega())
	}
	return opts
}

// Comparison holds one variant's fit of a shared record.
type Comparison struct {
	Variant equations.Variant
	Fit     estimator.FitResult
	Score   float64
	Err     error
}

// CompareVariants fits every registered variant to the same record,
// each with its default method, and reports the goodness of fit side
// by side. Options apply to every variant; an option naming a
// coefficient some variant lacks fails that variant only. Derivative
// channels are added up front when missing so the derivation-based
// variants see the same record as the rest.
func CompareVariants(x motion.Series, opts ...estimator.Option) ([]Comparison, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}
	if !x.HasDerivatives() {
		var err error
		x, err = motion.Derivatives(x)
		if err != nil {
			return nil, err
		}
	}

	variants := equations.Variants()
	comparisons := make([]Comparison, 0, len(variants))

	for _, v := range variants {
		c := Comparison{Variant: v}

		est, err := estimator.New(v, opts...)
		if err != nil {
			c.Err = err
			comparisons = append(comparisons, c)
			continue
		}
		if err := est.Fit(x); err != nil {
			c.Err = err
			comparisons = append(comparisons, c)
			continue
		}

		fit, err := est.Fitted()
		if err == nil {
			c.Fit = fit
			c.Score, err = est.Score(x)
		}
		c.Err = err
		comparisons = append(comparisons, c)
	}

	return comparisons, nil
}
