package main

import (
	"errors"
	"testing"
)

// TestPresent
func TestPresent(t *testing.T) {
	preds, err := Present([]int{1, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	expect := []Prediction{{1, "Abnormal"}, {0, "Normal"}, {0, "Normal"}, {1, "Abnormal"}}
	if len(preds) != len(expect) {
		t.Fatalf("wrong number of predictions %d", len(preds))
	}
	for i, p := range preds {
		if p != expect[i] {
			t.Errorf("row %d: expected %+v got %+v", i, expect[i], p)
		}
	}
}

// TestPresentEmpty
func TestPresentEmpty(t *testing.T) {
	preds, err := Present(nil)
	if err != nil || len(preds) != 0 {
		t.Errorf("unexpected result %v %v", preds, err)
	}
}

// TestPresentUnknownCode
func TestPresentUnknownCode(t *testing.T) {
	_, err := Present([]int{0, 2})
	if !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
	if errorCode(err) != LabelIntegrityError {
		t.Errorf("wrong error code %d", errorCode(err))
	}
}
