package koopman

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/fit"
	"github.com/san-kum/koopid/internal/logging"
)

var _ = Describe("Model", func() {
	var (
		model *Model
		trajs []*dynamo.Trajectory
	)

	BeforeEach(func() {
		var err error
		model, err = New(simpleSystem, config.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		trajs = simulateLinear(50, 10, 42)
	})

	Context("before training", func() {
		It("reports untrained", func() {
			Expect(model.Trained()).To(BeFalse())
		})

		It("rejects every prediction and hand-off call", func() {
			_, err := model.Predict([]float64{0, 0}, []float64{0})
			Expect(err).To(MatchError(ErrNotTrained))

			_, _, _, err = model.PredictWithJacobian([]float64{0, 0}, []float64{0})
			Expect(err).To(MatchError(ErrNotTrained))

			_, _, err = model.ToLinearSystem()
			Expect(err).To(MatchError(ErrNotTrained))

			_, err = model.Parameters()
			Expect(err).To(MatchError(ErrNotTrained))

			_, err = model.Linearization()
			Expect(err).To(MatchError(ErrNotTrained))

			_, err = model.PredictObservation(trajs[0])
			Expect(err).To(MatchError(ErrNotTrained))
		})

		It("still lifts observations", func() {
			z, err := model.Lift([]float64{1, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(z).To(Equal([]float64{1, 2}))
		})
	})

	Context("after training", func() {
		BeforeEach(func() {
			Expect(model.Train(trajs)).To(Succeed())
		})

		It("is trained", func() {
			Expect(model.Trained()).To(BeTrue())
		})

		It("returns Jacobians equal to A and B for any input", func() {
			A, B, err := model.ToLinearSystem()
			Expect(err).NotTo(HaveOccurred())

			for _, x := range [][]float64{{0, 0}, {5, -3}, {1e3, 1e-3}} {
				_, dx, du, err := model.PredictWithJacobian(x, []float64{0.7})
				Expect(err).NotTo(HaveOccurred())
				Expect(mat.Equal(dx, A)).To(BeTrue())
				Expect(mat.Equal(du, B)).To(BeTrue())
			}
		})

		It("hands out copies that cannot mutate the model", func() {
			before, err := model.Predict([]float64{1, 1}, []float64{1})
			Expect(err).NotTo(HaveOccurred())

			A, B, _ := model.ToLinearSystem()
			A.Set(0, 0, 1e9)
			B.Set(0, 0, 1e9)
			_, dx, du, _ := model.PredictWithJacobian([]float64{1, 1}, []float64{1})
			dx.Set(1, 1, 1e9)
			du.Set(1, 0, 1e9)
			params, _ := model.Parameters()
			params[ParamA].Set(0, 1, 1e9)

			after, err := model.Predict([]float64{1, 1}, []float64{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("rejects mis-sized inputs", func() {
			_, err := model.Predict([]float64{1}, []float64{1})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

			_, err = model.Predict([]float64{1, 2}, []float64{1, 2})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("keeps its matrices when a later Train fails", func() {
			before, _ := model.Parameters()

			err := model.Train([]*dynamo.Trajectory{dynamo.NewTrajectory(simpleSystem, 1)})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

			after, _ := model.Parameters()
			Expect(mat.Equal(before[ParamA], after[ParamA])).To(BeTrue())
			Expect(mat.Equal(before[ParamB], after[ParamB])).To(BeTrue())
		})
	})

	Describe("parameters", func() {
		BeforeEach(func() {
			Expect(model.Train(trajs)).To(Succeed())
		})

		It("restores an untrained model to identical predictions", func() {
			params, err := model.Parameters()
			Expect(err).NotTo(HaveOccurred())

			fresh, err := New(simpleSystem, config.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.SetParameters(params)).To(Succeed())
			Expect(fresh.Trained()).To(BeTrue())

			x, u := []float64{3.25, -1.5}, []float64{0.125}
			want, _ := model.Predict(x, u)
			got, err := fresh.Predict(x, u)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("copies the matrices it is given", func() {
			params, _ := model.Parameters()
			Expect(model.SetParameters(params)).To(Succeed())
			before, _ := model.Predict([]float64{1, 1}, []float64{1})

			params[ParamA].Set(0, 0, 42)
			after, _ := model.Predict([]float64{1, 1}, []float64{1})
			Expect(after).To(Equal(before))
		})

		DescribeTable("rejects malformed parameter sets",
			func(mutate func(Parameters) Parameters, want error) {
				params, _ := model.Parameters()
				Expect(model.SetParameters(mutate(params))).To(MatchError(want))
			},
			Entry("missing B", func(p Parameters) Parameters {
				delete(p, ParamB)
				return p
			}, ErrInvalidParameters),
			Entry("extra key", func(p Parameters) Parameters {
				p["C"] = mat.NewDense(1, 1, nil)
				return p
			}, ErrInvalidParameters),
			Entry("renamed key", func(p Parameters) Parameters {
				p["a"] = p[ParamA]
				delete(p, ParamA)
				return p
			}, ErrInvalidParameters),
			Entry("nil matrix", func(p Parameters) Parameters {
				p[ParamA] = nil
				return p
			}, ErrInvalidParameters),
			Entry("wrong A shape", func(p Parameters) Parameters {
				p[ParamA] = mat.NewDense(3, 3, nil)
				return p
			}, dynamo.ErrDimensionMismatch),
			Entry("wrong B shape", func(p Parameters) Parameters {
				p[ParamB] = mat.NewDense(2, 2, nil)
				return p
			}, dynamo.ErrDimensionMismatch),
		)
	})

	Describe("construction", func() {
		It("rejects invalid configuration", func() {
			opts := config.DefaultOptions()
			opts.PolyBasis = true
			opts.PolyDegree = 1
			_, err := New(simpleSystem, opts)
			Expect(err).To(MatchError(config.ErrInvalidConfig))
		})

		It("accepts a search-space mapping with irrelevant keys", func() {
			m, err := NewFromMap(simpleSystem, map[string]any{
				"method":      "lstsq",
				"poly_basis":  "true",
				"poly_degree": 2,
				"trig_freq":   5,
				"history":     3,
			})
			Expect(err).NotTo(HaveOccurred())
			l, c := m.Dims()
			Expect(l).To(Equal(4))
			Expect(c).To(Equal(1))
		})
	})

	Describe("stability-constrained fit", func() {
		It("fails explicitly and leaves the model untrained", func() {
			opts := config.DefaultOptions()
			opts.Method = fit.Stable
			m, err := New(simpleSystem, opts)
			Expect(err).NotTo(HaveOccurred())

			err = m.Train(trajs)
			Expect(err).To(MatchError(fit.ErrUnsupportedMethod))
			Expect(m.Trained()).To(BeFalse())

			_, err = m.Predict([]float64{0, 0}, []float64{0})
			Expect(err).To(MatchError(ErrNotTrained))
		})
	})

	Describe("logging", func() {
		It("reports training through the attached logger", func() {
			var buf bytes.Buffer
			m, err := New(simpleSystem, config.DefaultOptions(), WithLogger(logging.NewTestLogger(&buf)))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Train(trajs)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("model trained"))
		})
	})
})
