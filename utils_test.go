package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper function to initialize test configuration
func initTestConfig() {
	var cfg Configuration
	setDefaults(&cfg)
	Config = cfg
	// use verbose log flags
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// fakeClassifier implements Classifier interface with predefined answers
type fakeClassifier struct {
	features int
	codes    []int
	err      error
	panicMsg string
	calls    int
}

func (f *fakeClassifier) Features() int {
	return f.features
}

func (f *fakeClassifier) Predict(rows [][]float64) ([]int, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.codes != nil {
		return f.codes, nil
	}
	return make([]int, len(rows)), nil
}

// helper function to build CSV content with given header labels and rows
func csvContent(labels []string, rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(labels, ","))
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

// helper function to create header with n quoted labels padded with spaces
func quotedHeader(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf(` "%d" `, i)
	}
	return labels
}

// helper function to create row of n values
func valuesRow(n int, val string) []string {
	row := make([]string, n)
	for i := range row {
		row[i] = val
	}
	return row
}

// helper function to create logistic model spec which predicts Abnormal
// when the first feature is positive
func logisticSpec() ModelSpec {
	weights := make([]float64, NumFeatures)
	weights[0] = 10
	return ModelSpec{Type: "logistic", Version: "v1", Features: NumFeatures, Weights: weights}
}

// helper function to write JSON model file into given directory
func writeModel(t *testing.T, dir string, spec ModelSpec) string {
	t.Helper()
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestInList
func TestInList(t *testing.T) {
	if !InList("logistic", ModelTypes) {
		t.Error("logistic should be in model types")
	}
	if InList("svm", ModelTypes) {
		t.Error("svm should not be in model types")
	}
	if !InList(2, []int{1, 2, 3}) {
		t.Error("2 should be in list")
	}
}

// TestLogName
func TestLogName(t *testing.T) {
	initTestConfig()
	Config.LogFile = "/tmp/heartbeat.log"
	defer func() { Config.LogFile = "" }()
	name := LogName()
	if !strings.HasPrefix(name, "/tmp/heartbeat.log") || !strings.HasSuffix(name, "_%Y%m%d") {
		t.Errorf("unexpected log name %s", name)
	}
}
