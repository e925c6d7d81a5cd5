// Package cnn implements the wet/dry convolutional classifier: four
// convolutional blocks over a two-channel signal window, mean pooling
// across time, and a fully connected head emitting one wet-probability
// per timestep.
package cnn

import (
	"fmt"
	"math/rand"
)

// Params fixes the classifier topology at construction time.
type Params struct {
	Channels   int
	SampleSize int
	KernelSize int
	Dropout    float64
	FCNeurons  int
	Filters    [4]int
}

// DefaultParams returns the reference topology.
func DefaultParams() Params {
	return Params{
		Channels:   2,
		SampleSize: 100,
		KernelSize: 3,
		Dropout:    0.2,
		FCNeurons:  64,
		Filters:    [4]int{16, 32, 96, 192},
	}
}

func (p Params) validate() error {
	if p.Channels < 1 {
		return fmt.Errorf("channels must be >= 1, got %d", p.Channels)
	}
	if p.SampleSize < 1 {
		return fmt.Errorf("sample_size must be >= 1, got %d", p.SampleSize)
	}
	if p.KernelSize < 1 {
		return fmt.Errorf("kernel_size must be >= 1, got %d", p.KernelSize)
	}
	if p.Dropout < 0 || p.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0, 1), got %g", p.Dropout)
	}
	if p.FCNeurons < 1 {
		return fmt.Errorf("n_fc_neurons must be >= 1, got %d", p.FCNeurons)
	}
	for i, f := range p.Filters {
		if f < 1 {
			return fmt.Errorf("n_filters[%d] must be >= 1, got %d", i, f)
		}
	}
	return nil
}

// convBlock is two same-padded convolutions, each followed by a ReLU.
// A block maps dimIn -> dim -> dim channels; the four blocks of the
// classifier differ only in their width parameters.
type convBlock struct {
	proj1, proj2 *conv1d
}

func newConvBlock(kernel, dimIn, dim int, rng *rand.Rand) *convBlock {
	return &convBlock{
		proj1: newConv1d(dimIn, dim, kernel, rng),
		proj2: newConv1d(dim, dim, kernel, rng),
	}
}

func (b *convBlock) forward(x [][]float64) [][]float64 {
	x = reluRows(b.proj1.forward(x))
	return reluRows(b.proj2.forward(x))
}

// Classifier is the assembled model. The learned weights are its only
// state; dropout is stochastic only while training mode is enabled.
type Classifier struct {
	params   Params
	blocks   [4]*convBlock
	dense1   *dense
	dense2   *dense
	denseOut *dense
	rng      *rand.Rand
	training bool
}

// New constructs a classifier with randomly initialized weights.
func New(params Params) (*Classifier, error) {
	return NewSeeded(params, rand.Int63())
}

// NewSeeded constructs a classifier with a fixed rng seed, for
// reproducible initialization and dropout.
func NewSeeded(params Params, seed int64) (*Classifier, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier params: %w", err)
	}
	rng := rand.New(rand.NewSource(seed))

	c := &Classifier{params: params, rng: rng}
	dimIn := params.Channels
	for i := 0; i < 4; i++ {
		c.blocks[i] = newConvBlock(params.KernelSize, dimIn, params.Filters[i], rng)
		dimIn = params.Filters[i]
	}
	c.dense1 = newDense(params.Filters[3], params.FCNeurons, rng)
	c.dense2 = newDense(params.FCNeurons, params.FCNeurons, rng)
	c.denseOut = newDense(params.FCNeurons, params.SampleSize, rng)
	return c, nil
}

// Params returns the topology the classifier was built with.
func (c *Classifier) Params() Params {
	return c.params
}

// SetTraining toggles training mode. Dropout only fires while training.
func (c *Classifier) SetTraining(training bool) {
	c.training = training
}

// Forward runs the model over a batch. Input shape is
// (batch, channels, sample_size); output is (batch, sample_size) with
// every value in [0, 1].
func (c *Classifier) Forward(batch [][][]float64) ([][]float64, error) {
	out := make([][]float64, len(batch))
	for n, sample := range batch {
		if len(sample) != c.params.Channels {
			return nil, fmt.Errorf("sample %d: expected %d channels, got %d", n, c.params.Channels, len(sample))
		}
		for ch, row := range sample {
			if len(row) != c.params.SampleSize {
				return nil, fmt.Errorf("sample %d channel %d: expected %d timesteps, got %d", n, ch, c.params.SampleSize, len(row))
			}
		}
		out[n] = c.forwardOne(sample)
	}
	return out, nil
}

func (c *Classifier) forwardOne(x [][]float64) []float64 {
	for _, b := range c.blocks {
		x = b.forward(x)
	}

	// Collapse the temporal dimension by mean pooling, one feature per
	// convolutional filter.
	features := make([]float64, len(x))
	for i, row := range x {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		features[i] = sum / float64(len(row))
	}

	h := relu(c.dense1.forward(features))
	h = c.maybeDropout(h)
	h = relu(c.dense2.forward(h))
	h = c.maybeDropout(h)
	return sigmoid(c.denseOut.forward(h))
}

func (c *Classifier) maybeDropout(x []float64) []float64 {
	if !c.training {
		return x
	}
	return dropout(x, c.params.Dropout, c.rng)
}

// Predict runs Forward and thresholds the probabilities into wet/dry
// flags.
func (c *Classifier) Predict(batch [][][]float64, threshold float64) ([][]bool, error) {
	probs, err := c.Forward(batch)
	if err != nil {
		return nil, err
	}
	out := make([][]bool, len(probs))
	for n, row := range probs {
		flags := make([]bool, len(row))
		for i, p := range row {
			flags[i] = p > threshold
		}
		out[n] = flags
	}
	return out, nil
}

// Confusion tallies per-timestep agreement between predicted and
// reference wet/dry flags.
type Confusion struct {
	TrueWet    int // predicted wet, reference wet
	FalseAlarm int // predicted wet, reference dry
	MissedWet  int // predicted dry, reference wet
	TrueDry    int // predicted dry, reference dry
}

// Evaluate compares predictions to reference flags timestep by
// timestep. Ragged rows are compared up to the shorter length.
func Evaluate(pred, ref [][]bool) Confusion {
	var c Confusion
	for n := 0; n < len(pred) && n < len(ref); n++ {
		row, want := pred[n], ref[n]
		for i := 0; i < len(row) && i < len(want); i++ {
			switch {
			case row[i] && want[i]:
				c.TrueWet++
			case row[i] && !want[i]:
				c.FalseAlarm++
			case !row[i] && want[i]:
				c.MissedWet++
			default:
				c.TrueDry++
			}
		}
	}
	return c
}
