package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/koopman"
)

// Candidate is one named model configuration to compare.
type Candidate struct {
	Name    string
	Options config.Options
}

// Outcome is the score of one candidate. Err is set when the candidate
// failed to build or train; the other candidates are unaffected.
type Outcome struct {
	Candidate
	Model   *koopman.Model
	Metrics map[string]float64
	Err     error
}

// PresetCandidates returns every named preset in sorted order.
func PresetCandidates() []Candidate {
	names := config.ListPresets()
	out := make([]Candidate, 0, len(names))
	for _, n := range names {
		opts, _ := config.GetPreset(n)
		out = append(out, Candidate{Name: n, Options: opts})
	}
	return out
}

// Compare generates one data set and trains every candidate on it
// concurrently, one model per goroutine. Outcomes follow the order of
// candidates. Only data generation and cancellation abort the comparison.
func (e *Experiment) Compare(ctx context.Context, candidates []Candidate) ([]Outcome, error) {
	data, err := e.Generate(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, scores, err := e.trainAndScore(data, c.Options)
			out[i] = Outcome{Candidate: c, Model: m, Metrics: scores, Err: err}
			if err != nil {
				e.logger.Info("candidate failed", "name", c.Name, "error", err.Error())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
