package main

import "fmt"

// Labels maps prediction codes to human readable labels
var Labels = map[int]string{
	0: "Normal",
	1: "Abnormal",
}

// Prediction represents single row of results table
type Prediction struct {
	Code  int    `json:"prediction"`
	Label string `json:"label"`
}

// Present converts prediction codes into ordered results table, a code
// without label is reported as integrity failure
func Present(codes []int) ([]Prediction, error) {
	out := make([]Prediction, len(codes))
	for i, code := range codes {
		label, ok := Labels[code]
		if !ok {
			return nil, stageError(StagePresenting, LabelIntegrityError,
				fmt.Errorf("%w %d at row %d", ErrUnknownLabel, code, i))
		}
		out[i] = Prediction{Code: code, Label: label}
	}
	return out, nil
}
