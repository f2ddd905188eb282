package main

import (
	"context"
	"fmt"
	"log"
)

// Infer runs classifier over the whole table in one batch call
func Infer(ctx context.Context, clf Classifier, table *FeatureTable) (codes []int, err error) {
	if clf == nil {
		return nil, stageError(StageInferring, InferenceError, fmt.Errorf("%w: no classifier", ErrPrediction))
	}
	if err := ctx.Err(); err != nil {
		return nil, stageError(StageInferring, InferenceError, err)
	}
	if clf.Features() != len(table.Columns) {
		return nil, stageError(StageInferring, InferenceError,
			fmt.Errorf("%w: classifier expects %d features, table has %d", ErrPrediction, clf.Features(), len(table.Columns)))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: classifier panic %v", r)
			codes = nil
			err = stageError(StageInferring, InferenceError, fmt.Errorf("%w: %v", ErrPrediction, r))
		}
	}()
	codes, err = clf.Predict(table.Rows)
	if err != nil {
		return nil, stageError(StageInferring, InferenceError, fmt.Errorf("%w: %v", ErrPrediction, err))
	}
	if len(codes) != len(table.Rows) {
		return nil, stageError(StageInferring, InferenceError,
			fmt.Errorf("%w: got %d predictions for %d rows", ErrPrediction, len(codes), len(table.Rows)))
	}
	return codes, nil
}
