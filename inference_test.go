package main

import (
	"context"
	"errors"
	"testing"
)

// helper function to create table with n rows
func testTable(n int) *FeatureTable {
	table := &FeatureTable{Columns: CanonicalColumns()}
	for i := 0; i < n; i++ {
		table.Rows = append(table.Rows, make([]float64, NumFeatures))
	}
	return table
}

// TestInfer
func TestInfer(t *testing.T) {
	clf := &fakeClassifier{features: NumFeatures, codes: []int{1, 0}}
	codes, err := Infer(context.Background(), clf, testTable(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 2 || codes[0] != 1 || codes[1] != 0 {
		t.Errorf("wrong codes %v", codes)
	}
	if clf.calls != 1 {
		t.Errorf("classifier should be called once, got %d", clf.calls)
	}
}

// TestInferFailures
func TestInferFailures(t *testing.T) {
	cases := map[string]Classifier{
		"nil":      nil,
		"error":    &fakeClassifier{features: NumFeatures, err: errors.New("boom")},
		"panic":    &fakeClassifier{features: NumFeatures, panicMsg: "boom"},
		"length":   &fakeClassifier{features: NumFeatures, codes: []int{1}},
		"features": &fakeClassifier{features: 10},
	}
	for name, clf := range cases {
		_, err := Infer(context.Background(), clf, testTable(3))
		if !errors.Is(err, ErrPrediction) {
			t.Errorf("%s: expected ErrPrediction, got %v", name, err)
		}
		if errorCode(err) != InferenceError {
			t.Errorf("%s: wrong error code %d", name, errorCode(err))
		}
	}
}

// TestInferCanceled
func TestInferCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	clf := &fakeClassifier{features: NumFeatures}
	if _, err := Infer(ctx, clf, testTable(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if clf.calls != 0 {
		t.Error("classifier should not be called")
	}
}
