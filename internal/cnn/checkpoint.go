package cnn

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// checkpoint is the serialized form of a classifier: its topology plus
// every layer's weights, in construction order.
type checkpoint struct {
	Version int         `msgpack:"version"`
	Params  Params      `msgpack:"params"`
	Convs   []convData  `msgpack:"convs"` // blocks 1-4, two convs each
	Dense   []denseData `msgpack:"dense"` // dense1, dense2, denseOut
}

type convData struct {
	Weight [][][]float64 `msgpack:"weight"`
	Bias   []float64     `msgpack:"bias"`
}

type denseData struct {
	Weight []float64 `msgpack:"weight"` // row-major, out x in
	Bias   []float64 `msgpack:"bias"`
}

const checkpointVersion = 1

// SaveCheckpoint writes the classifier weights to a msgpack file.
func SaveCheckpoint(c *Classifier, path string) error {
	ckpt := checkpoint{
		Version: checkpointVersion,
		Params:  c.params,
	}
	for _, b := range c.blocks {
		for _, conv := range []*conv1d{b.proj1, b.proj2} {
			ckpt.Convs = append(ckpt.Convs, convData{Weight: conv.weight, Bias: conv.bias})
		}
	}
	for _, d := range []*dense{c.dense1, c.dense2, c.denseOut} {
		raw := mat.DenseCopyOf(d.w).RawMatrix()
		ckpt.Dense = append(ckpt.Dense, denseData{Weight: raw.Data, Bias: d.b})
	}

	data, err := msgpack.Marshal(&ckpt)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reconstructs a classifier from a msgpack checkpoint
// written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var ckpt checkpoint
	if err := msgpack.Unmarshal(data, &ckpt); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if ckpt.Version != checkpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", ckpt.Version)
	}
	if len(ckpt.Convs) != 8 || len(ckpt.Dense) != 3 {
		return nil, fmt.Errorf("malformed checkpoint: %d conv layers, %d dense layers", len(ckpt.Convs), len(ckpt.Dense))
	}

	c, err := NewSeeded(ckpt.Params, 0)
	if err != nil {
		return nil, err
	}
	for i, b := range c.blocks {
		for j, conv := range []*conv1d{b.proj1, b.proj2} {
			cd := ckpt.Convs[i*2+j]
			if err := conv.setWeights(cd.Weight, cd.Bias); err != nil {
				return nil, fmt.Errorf("conv block %d layer %d: %w", i+1, j+1, err)
			}
		}
	}
	for i, d := range []*dense{c.dense1, c.dense2, c.denseOut} {
		dd := ckpt.Dense[i]
		if len(dd.Weight) != d.out*d.in || len(dd.Bias) != d.out {
			return nil, fmt.Errorf("dense layer %d: weight shape mismatch", i+1)
		}
		d.w = mat.NewDense(d.out, d.in, dd.Weight)
		d.b = dd.Bias
	}
	return c, nil
}

// setWeights replaces the layer weights after shape validation.
func (c *conv1d) setWeights(weight [][][]float64, bias []float64) error {
	if len(weight) != c.outCh || len(bias) != c.outCh {
		return fmt.Errorf("expected %d output channels, got %d", c.outCh, len(weight))
	}
	for _, per := range weight {
		if len(per) != c.inCh {
			return fmt.Errorf("expected %d input channels, got %d", c.inCh, len(per))
		}
		for _, taps := range per {
			if len(taps) != c.kernel {
				return fmt.Errorf("expected kernel size %d, got %d", c.kernel, len(taps))
			}
		}
	}
	c.weight = weight
	c.bias = bias
	return nil
}
