package main

// classifier module provides in-process evaluation of trained models
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"errors"
	"fmt"
	"math"
)

// ModelTypes defines supported classifier types
var ModelTypes = []string{"logistic", "decision_tree", "random_forest"}

// Classifier represents trained model which assigns label code to every row
type Classifier interface {
	Predict(rows [][]float64) ([]int, error)
	Features() int
}

// ModelSpec represents serialized form of the classifier
type ModelSpec struct {
	Type      string       `json:"type"`                // model type, one of ModelTypes
	Version   string       `json:"version,omitempty"`   // model version
	Features  int          `json:"features"`            // number of input features
	Weights   []float64    `json:"weights,omitempty"`   // logistic weights
	Bias      float64      `json:"bias,omitempty"`      // logistic bias
	Threshold float64      `json:"threshold,omitempty"` // logistic decision threshold
	Nodes     []TreeNode   `json:"nodes,omitempty"`     // decision tree nodes
	Trees     [][]TreeNode `json:"trees,omitempty"`     // random forest trees
}

// TreeNode represents single node of decision tree, children are indexes
// within the same node slice
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewClassifier constructs classifier from its serialized specification
func NewClassifier(spec ModelSpec) (Classifier, error) {
	if !InList(spec.Type, ModelTypes) {
		return nil, fmt.Errorf("model type %q is not supported, please provide one of %v", spec.Type, ModelTypes)
	}
	if spec.Features <= 0 {
		return nil, fmt.Errorf("invalid number of features %d", spec.Features)
	}
	switch spec.Type {
	case "logistic":
		if len(spec.Weights) != spec.Features {
			return nil, fmt.Errorf("logistic model has %d weights for %d features", len(spec.Weights), spec.Features)
		}
		threshold := spec.Threshold
		if threshold == 0 {
			threshold = 0.5
		}
		return &Logistic{weights: spec.Weights, bias: spec.Bias, threshold: threshold}, nil
	case "decision_tree":
		return newDecisionTree(spec.Nodes, spec.Features)
	case "random_forest":
		if len(spec.Trees) == 0 {
			return nil, errors.New("random forest has no trees")
		}
		forest := &RandomForest{features: spec.Features}
		for i, nodes := range spec.Trees {
			tree, err := newDecisionTree(nodes, spec.Features)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			forest.trees = append(forest.trees, tree)
		}
		return forest, nil
	}
	return nil, fmt.Errorf("model type %q is not implemented", spec.Type)
}

// helper function to check shape of input rows
func checkRows(rows [][]float64, features int) error {
	for i, row := range rows {
		if len(row) != features {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), features)
		}
	}
	return nil
}

// Logistic represents binary logistic regression model
type Logistic struct {
	weights   []float64
	bias      float64
	threshold float64
}

// Features returns number of model features
func (m *Logistic) Features() int {
	return len(m.weights)
}

// Probability returns probability of positive class for given row
func (m *Logistic) Probability(row []float64) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * row[i]
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict implements Classifier interface
func (m *Logistic) Predict(rows [][]float64) ([]int, error) {
	if err := checkRows(rows, m.Features()); err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		if m.Probability(row) >= m.threshold {
			out[i] = 1
		}
	}
	return out, nil
}

// DecisionTree represents binary decision tree stored as flat node slice
type DecisionTree struct {
	nodes    []TreeNode
	features int
}

func newDecisionTree(nodes []TreeNode, features int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= features {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return &DecisionTree{nodes: nodes, features: features}, nil
}

// Features returns number of model features
func (dt *DecisionTree) Features() int {
	return dt.features
}

// children always point forward, see newDecisionTree, so the walk terminates
func (dt *DecisionTree) classify(row []float64) int {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// Predict implements Classifier interface
func (dt *DecisionTree) Predict(rows [][]float64) ([]int, error) {
	if err := checkRows(rows, dt.features); err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = dt.classify(row)
	}
	return out, nil
}

// RandomForest represents ensemble of decision trees with majority vote
type RandomForest struct {
	trees    []*DecisionTree
	features int
}

// Features returns number of model features
func (rf *RandomForest) Features() int {
	return rf.features
}

// Predict implements Classifier interface, ties are resolved to the lowest label
func (rf *RandomForest) Predict(rows [][]float64) ([]int, error) {
	if err := checkRows(rows, rf.features); err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		votes := make(map[int]int)
		for _, tree := range rf.trees {
			votes[tree.classify(row)]++
		}
		best, bestCount := 0, -1
		for label, count := range votes {
			if count > bestCount || (count == bestCount && label < best) {
				best, bestCount = label, count
			}
		}
		out[i] = best
	}
	return out, nil
}
