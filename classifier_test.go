package main

import (
	"testing"
)

// helper function to create decision tree which splits on given feature
func splitTree(feature int, threshold float64, left, right int) []TreeNode {
	return []TreeNode{
		{FeatureIdx: feature, Threshold: threshold, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: left},
		{IsLeaf: true, ClassLabel: right},
	}
}

// TestLogistic
func TestLogistic(t *testing.T) {
	clf, err := NewClassifier(logisticSpec())
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{make([]float64, NumFeatures), make([]float64, NumFeatures)}
	rows[0][0] = 1
	rows[1][0] = -1
	codes, err := clf.Predict(rows)
	if err != nil {
		t.Fatal(err)
	}
	if codes[0] != 1 || codes[1] != 0 {
		t.Errorf("wrong codes %v", codes)
	}
	if _, err := clf.Predict([][]float64{{1, 2}}); err == nil {
		t.Error("short row should fail")
	}
}

// TestDecisionTree
func TestDecisionTree(t *testing.T) {
	spec := ModelSpec{Type: "decision_tree", Features: NumFeatures, Nodes: splitTree(3, 0.5, 0, 1)}
	clf, err := NewClassifier(spec)
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{make([]float64, NumFeatures), make([]float64, NumFeatures)}
	rows[1][3] = 0.7
	codes, err := clf.Predict(rows)
	if err != nil {
		t.Fatal(err)
	}
	if codes[0] != 0 || codes[1] != 1 {
		t.Errorf("wrong codes %v", codes)
	}
}

// TestRandomForest
func TestRandomForest(t *testing.T) {
	spec := ModelSpec{
		Type:     "random_forest",
		Features: NumFeatures,
		Trees: [][]TreeNode{
			splitTree(0, 0.5, 0, 1),
			splitTree(1, 0.5, 0, 1),
			splitTree(2, 0.5, 1, 0),
			{{IsLeaf: true, ClassLabel: 1}},
		},
	}
	clf, err := NewClassifier(spec)
	if err != nil {
		t.Fatal(err)
	}
	// votes: 0,0,1,1 is a tie resolved to 0; 1,1,1,1 is Abnormal
	rows := [][]float64{make([]float64, NumFeatures), make([]float64, NumFeatures)}
	rows[1][0], rows[1][1] = 1, 1
	codes, err := clf.Predict(rows)
	if err != nil {
		t.Fatal(err)
	}
	if codes[0] != 0 || codes[1] != 1 {
		t.Errorf("wrong codes %v", codes)
	}
}

// TestNewClassifierInvalid
func TestNewClassifierInvalid(t *testing.T) {
	specs := map[string]ModelSpec{
		"type":      {Type: "svm", Features: NumFeatures},
		"features":  {Type: "logistic"},
		"weights":   {Type: "logistic", Features: NumFeatures, Weights: []float64{1}},
		"nodes":     {Type: "decision_tree", Features: NumFeatures},
		"backward":  {Type: "decision_tree", Features: NumFeatures, Nodes: []TreeNode{{LeftChild: 0, RightChild: 0}}},
		"index":     {Type: "decision_tree", Features: NumFeatures, Nodes: splitTree(NumFeatures, 0, 0, 1)},
		"no trees":  {Type: "random_forest", Features: NumFeatures},
		"bad trees": {Type: "random_forest", Features: NumFeatures, Trees: [][]TreeNode{{}}},
	}
	for name, spec := range specs {
		if _, err := NewClassifier(spec); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
