package cnn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// conv1d is a 1-D convolution layer with "same" padding, so the
// temporal length of its output matches the input.
type conv1d struct {
	inCh, outCh, kernel int
	weight              [][][]float64 // [out][in][kernel]
	bias                []float64
}

func newConv1d(inCh, outCh, kernel int, rng *rand.Rand) *conv1d {
	c := &conv1d{
		inCh:   inCh,
		outCh:  outCh,
		kernel: kernel,
		weight: make([][][]float64, outCh),
		bias:   make([]float64, outCh),
	}
	// He initialization for ReLU activations.
	std := math.Sqrt(2.0 / float64(inCh*kernel))
	for o := range c.weight {
		c.weight[o] = make([][]float64, inCh)
		for i := range c.weight[o] {
			c.weight[o][i] = make([]float64, kernel)
			for k := range c.weight[o][i] {
				c.weight[o][i][k] = rng.NormFloat64() * std
			}
		}
	}
	return c
}

// forward maps x of shape [inCh][T] to [outCh][T].
func (c *conv1d) forward(x [][]float64) [][]float64 {
	if len(x) == 0 {
		return nil
	}
	t := len(x[0])
	padLeft := (c.kernel - 1) / 2

	out := make([][]float64, c.outCh)
	for o := 0; o < c.outCh; o++ {
		row := make([]float64, t)
		for pos := 0; pos < t; pos++ {
			sum := c.bias[o]
			for i := 0; i < c.inCh; i++ {
				w := c.weight[o][i]
				for k := 0; k < c.kernel; k++ {
					src := pos + k - padLeft
					if src < 0 || src >= t {
						continue // zero padding
					}
					sum += w[k] * x[i][src]
				}
			}
			row[pos] = sum
		}
		out[o] = row
	}
	return out
}

// dense is a fully connected layer backed by a gonum matrix.
type dense struct {
	in, out int
	w       *mat.Dense // out x in
	b       []float64
}

func newDense(in, out int, rng *rand.Rand) *dense {
	std := math.Sqrt(2.0 / float64(in))
	data := make([]float64, out*in)
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return &dense{
		in:  in,
		out: out,
		w:   mat.NewDense(out, in, data),
		b:   make([]float64, out),
	}
}

func (d *dense) forward(x []float64) []float64 {
	var y mat.VecDense
	y.MulVec(d.w, mat.NewVecDense(d.in, x))
	out := make([]float64, d.out)
	for i := range out {
		out[i] = y.AtVec(i) + d.b[i]
	}
	return out
}

func relu(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			out[i] = v
		}
	}
	return out
}

func reluRows(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = relu(row)
	}
	return out
}

func sigmoid(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 1.0 / (1.0 + math.Exp(-v))
	}
	return out
}

// dropout zeroes activations with probability p and rescales the
// survivors by 1/(1-p) (inverted dropout). Identity when p <= 0.
func dropout(x []float64, p float64, rng *rand.Rand) []float64 {
	if p <= 0 {
		return x
	}
	out := make([]float64, len(x))
	scale := 1.0 / (1.0 - p)
	for i, v := range x {
		if rng.Float64() >= p {
			out[i] = v * scale
		}
	}
	return out
}
