// Package engine compiles artifacts into forward-only inference engines.
// A compiled engine's parameters are immutable, so a single engine may
// serve concurrent callers.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tovenja/quench/internal/adapters/ir"
	"github.com/tovenja/quench/internal/domain/quant"
	"github.com/tovenja/quench/pkg/metrics"
)

// Supported device names. AUTO resolves to the CPU backend.
const (
	DeviceCPU  = "CPU"
	DeviceAuto = "AUTO"
)

// Engine scores inputs with a compiled artifact. It satisfies model.Model.
type Engine struct {
	arch      string
	device    string
	precision quant.Precision
	features  int
	classes   int
	weights   []float32
	bias      []float32
}

// Description summarizes what an engine runs and where.
type Description struct {
	Arch      string
	Device    string
	Precision quant.Precision
	Features  int
	Classes   int
}

// String renders the description for logs.
func (d Description) String() string {
	return fmt.Sprintf("%s/%s on %s (%dx%d)", d.Arch, d.Precision, d.Device, d.Classes, d.Features)
}

// Compile materializes an artifact onto a device. Device names are
// case-insensitive; int8 payloads are dequantized here, once, so the hot
// path runs plain float32 math.
func Compile(art *ir.Artifact, device string) (*Engine, error) {
	start := time.Now()
	if art == nil {
		return nil, ErrNilArtifact
	}
	resolved, err := resolveDevice(device)
	if err != nil {
		return nil, err
	}
	if art.Header.Arch != ir.ArchLinear {
		return nil, fmt.Errorf("%w: unknown arch %q", ir.ErrBadArtifact, art.Header.Arch)
	}

	weights, bias := art.Parameters()
	if len(weights) != art.Header.Classes*art.Header.Features || len(bias) != art.Header.Classes {
		return nil, fmt.Errorf("%w: payload does not match header shape", ir.ErrBadArtifact)
	}

	metrics.RecordArtifactCompiled()
	metrics.RecordCompileLatency(float64(time.Since(start).Milliseconds()))
	return &Engine{
		arch:      art.Header.Arch,
		device:    resolved,
		precision: art.Header.Precision,
		features:  art.Header.Features,
		classes:   art.Header.Classes,
		weights:   weights,
		bias:      bias,
	}, nil
}

// Describe reports the engine's topology, precision and device.
func (e *Engine) Describe() Description {
	return Description{
		Arch:      e.arch,
		Device:    e.device,
		Precision: e.precision,
		Features:  e.features,
		Classes:   e.classes,
	}
}

// Forward computes one score row per input row.
func (e *Engine) Forward(ctx context.Context, inputs [][]float32) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores := make([][]float32, len(inputs))
	for i, input := range inputs {
		if len(input) != e.features {
			return nil, ErrBadShape
		}
		row := make([]float32, e.classes)
		for c := 0; c < e.classes; c++ {
			sum := e.bias[c]
			wStart := c * e.features
			for j, v := range input {
				sum += e.weights[wStart+j] * v
			}
			row[c] = sum
		}
		scores[i] = row
	}
	return scores, nil
}

// resolveDevice normalizes a device name. An empty name means AUTO.
func resolveDevice(device string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(device)) {
	case DeviceCPU, DeviceAuto, "":
		return DeviceCPU, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDevice, device)
	}
}
