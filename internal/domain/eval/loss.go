package eval

import "math"

// CrossEntropy returns the mean negative log-likelihood of the labels under
// a softmax over each score row. Inputs are validated the same way as TopK.
func CrossEntropy(scores [][]float32, labels []int) (float64, error) {
	if err := validate(scores, labels); err != nil {
		return 0, err
	}
	var total float64
	for i, row := range scores {
		total += logSumExp(row) - float64(row[labels[i]])
	}
	return total / float64(len(scores)), nil
}

// Softmax converts one score row into probabilities summing to one.
// An empty row yields nil.
func Softmax(row []float32) []float64 {
	if len(row) == 0 {
		return nil
	}
	shift := rowMax(row)
	out := make([]float64, len(row))
	var sum float64
	for i, v := range row {
		out[i] = math.Exp(float64(v) - shift)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// logSumExp computes log(sum(exp(row))) shifted by the row maximum so large
// scores do not overflow.
func logSumExp(row []float32) float64 {
	shift := rowMax(row)
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v) - shift)
	}
	return shift + math.Log(sum)
}

func rowMax(row []float32) float64 {
	max := float64(row[0])
	for _, v := range row[1:] {
		if float64(v) > max {
			max = float64(v)
		}
	}
	return max
}
