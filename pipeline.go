package main

// pipeline module wires model acquisition, validation, inference and
// presentation of predictions
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Stage represents state of the classification pipeline
type Stage int

const (
	StageIdle Stage = iota
	StageAcquiring
	StageReady
	StageAwaitingInput
	StageValidating
	StageInferring
	StagePresenting
	StageFailed
)

var stageNames = []string{
	"Idle",
	"Acquiring",
	"Ready",
	"AwaitingInput",
	"Validating",
	"Inferring",
	"Presenting",
	"Failed",
}

// String implements fmt.Stringer interface
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// ModelAcquirer provides classifier to the pipeline
type ModelAcquirer interface {
	Acquire(ctx context.Context) (Classifier, error)
}

// maximum number of uploaded rows echoed back with predictions
const maxPreviewRows = 100

// Result represents outcome of single upload
type Result struct {
	ID          string       `json:"id"`          // request id
	File        string       `json:"file"`        // uploaded file name
	Digest      string       `json:"sha256"`      // checksum of uploaded content
	Rows        int          `json:"rows"`        // number of rows
	Columns     []string     `json:"columns"`     // canonical column names of uploaded table
	Inputs      [][]float64  `json:"inputs"`      // leading rows of uploaded table
	Truncated   bool         `json:"truncated"`   // inputs hold only first maxPreviewRows rows
	Predictions []Prediction `json:"predictions"` // predictions in upload order
	Cached      bool         `json:"cached"`      // result is taken from cache
	Elapsed     string       `json:"elapsed"`     // processing time
}

// Values returns uploaded values of given row, or nil if row is not part of
// the preview
func (r *Result) Values(row int) []float64 {
	if row < 0 || row >= len(r.Inputs) {
		return nil
	}
	return r.Inputs[row]
}

// cached outcome of classification
type cacheEntry struct {
	inputs      [][]float64
	predictions []Prediction
}

// helper function to fill result with table preview and predictions
func (r *Result) fill(entry cacheEntry) {
	r.Columns = CanonicalColumns()
	r.Inputs = entry.inputs
	r.Predictions = entry.predictions
	r.Rows = len(entry.predictions)
	r.Truncated = len(entry.inputs) < r.Rows
}

// Pipeline classifies uploaded tables
type Pipeline struct {
	models ModelAcquirer
	cache  *lru.Cache[string, cacheEntry]
}

// NewPipeline creates pipeline, non positive cacheSize disables result cache
func NewPipeline(models ModelAcquirer, cacheSize int) (*Pipeline, error) {
	p := &Pipeline{models: models}
	if cacheSize > 0 {
		cache, err := lru.New[string, cacheEntry](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// helper function to log stage transition
func transition(id string, stage Stage) {
	if Config.Verbose > 0 {
		log.Printf("request %s: %s", id, stage)
	}
}

// Run classifies uploaded CSV content
func (p *Pipeline) Run(ctx context.Context, name string, r io.Reader) (*Result, error) {
	start := time.Now()
	clf, err := p.models.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stageError(StageAwaitingInput, BadRequest, err)
	}
	result := &Result{ID: uuid.NewString(), File: name, Digest: checksum(data)}
	defer func() {
		result.Elapsed = time.Since(start).String()
		transition(result.ID, StageAwaitingInput)
	}()

	if p.cache != nil {
		if entry, ok := p.cache.Get(result.Digest); ok {
			result.fill(entry)
			result.Cached = true
			return result, nil
		}
	}

	transition(result.ID, StageValidating)
	table, err := Validate(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	transition(result.ID, StageInferring)
	codes, err := Infer(ctx, clf, table)
	if err != nil {
		return nil, err
	}
	transition(result.ID, StagePresenting)
	preds, err := Present(codes)
	if err != nil {
		return nil, err
	}
	inputs := table.Rows
	if len(inputs) > maxPreviewRows {
		inputs = inputs[:maxPreviewRows]
	}
	entry := cacheEntry{inputs: inputs, predictions: preds}
	if p.cache != nil {
		p.cache.Add(result.Digest, entry)
	}
	result.fill(entry)
	return result, nil
}
