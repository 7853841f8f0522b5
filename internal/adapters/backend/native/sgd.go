package native

import (
	"context"

	"github.com/tovenja/quench/internal/domain/eval"
	"github.com/tovenja/quench/internal/domain/model"
)

// defaultLearningRate is used when no rate or a non-positive rate is given.
const defaultLearningRate = 0.01

// SGD trains a Linear model with mini-batch gradient descent over
// cross-entropy loss. Gradients accumulate across Backward calls until
// Step applies them and ZeroGrad clears them.
type SGD struct {
	target *Linear
	lr     float64
	gradW  []float32
	gradB  []float32
	seen   int
}

// NewSGD creates an optimizer bound to the given model.
func NewSGD(target *Linear, lr float64) (*SGD, error) {
	if target == nil {
		return nil, ErrNilModel
	}
	if lr <= 0 {
		lr = defaultLearningRate
	}
	return &SGD{
		target: target,
		lr:     lr,
		gradW:  make([]float32, len(target.weights)),
		gradB:  make([]float32, len(target.bias)),
	}, nil
}

// LearningRate returns the step size in use.
func (s *SGD) LearningRate() float64 { return s.lr }

// ZeroGrad discards any accumulated gradients.
func (s *SGD) ZeroGrad() {
	for i := range s.gradW {
		s.gradW[i] = 0
	}
	for i := range s.gradB {
		s.gradB[i] = 0
	}
	s.seen = 0
}

// Backward accumulates cross-entropy gradients for one batch. The scores
// must come from a forward pass over the same batch: the gradient of the
// loss with respect to each score row is softmax(row) minus the one-hot
// label vector.
func (s *SGD) Backward(ctx context.Context, batch model.Batch, scores [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return err
	}
	if len(scores) != batch.Size() {
		return ErrBadScores
	}
	features, classes := s.target.Shape()
	for i, row := range scores {
		if len(row) != classes {
			return ErrBadScores
		}
		input := batch.Inputs[i]
		if len(input) != features {
			return ErrBadShape
		}
		label := batch.Labels[i]
		if label < 0 || label >= classes {
			return ErrBadLabel
		}
		probs := eval.Softmax(row)
		probs[label]--
		for c, p := range probs {
			g := float32(p)
			s.gradB[c] += g
			wStart := c * features
			for j, v := range input {
				s.gradW[wStart+j] += g * v
			}
		}
	}
	s.seen += batch.Size()
	return nil
}

// Step applies the mean accumulated gradient to the model's parameters.
// Calling Step with nothing accumulated is a no-op.
func (s *SGD) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.seen == 0 {
		return nil
	}
	scale := float32(s.lr / float64(s.seen))
	for i, g := range s.gradW {
		s.target.weights[i] -= scale * g
	}
	for i, g := range s.gradB {
		s.target.bias[i] -= scale * g
	}
	return nil
}
