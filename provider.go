package main

// provider module holds classifier for the lifetime of the server
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// ModelProvider obtains, verifies and deserializes model artifact once and
// keeps resulting classifier (or the failure) for subsequent calls
type ModelProvider struct {
	config   ModelConfig
	sources  []Source
	decoders []Decoder

	loading chan struct{} // held by the caller which performs acquisition

	mu    sync.RWMutex // guards fields below
	state Stage
	model Classifier
	info  ArtifactInfo
	err   error
}

// NewModelProvider creates model provider for given model configuration
func NewModelProvider(cfg ModelConfig) (*ModelProvider, error) {
	if cfg.Path == "" {
		return nil, errors.New("model path is not provided")
	}
	decoders, err := NewDecoders(cfg.Decoders)
	if err != nil {
		return nil, err
	}
	return &ModelProvider{
		config:   cfg,
		sources:  NewSources(cfg),
		decoders: decoders,
		loading:  make(chan struct{}, 1),
		state:    StageIdle,
	}, nil
}

// Acquire returns classifier, the first call performs acquisition and all
// other calls (including concurrent ones) return its outcome. Callers which
// wait for acquisition in progress give up when their context is done.
func (p *ModelProvider) Acquire(ctx context.Context) (Classifier, error) {
	if model, done, err := p.outcome(); done {
		return model, err
	}
	select {
	case p.loading <- struct{}{}:
	case <-ctx.Done():
		return nil, stageError(StageAcquiring, AcquisitionError, ctx.Err())
	}
	defer func() { <-p.loading }()

	// acquisition may have been completed while we waited
	if model, done, err := p.outcome(); done {
		return model, err
	}

	p.setState(StageAcquiring)
	model, info, err := p.load(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// caller went away, next caller starts over
			p.state = StageIdle
			return nil, err
		}
		log.Println("ERROR: unable to load model", err)
		p.state = StageFailed
		p.err = err
		return nil, err
	}
	log.Printf("loaded %s model %s (%d bytes, source=%s, decoder=%s)", info.Type, info.Path, info.Size, info.Source, info.Decoder)
	p.state = StageReady
	p.model = model
	p.info = info
	return model, nil
}

// helper function to return cached outcome of acquisition if any
func (p *ModelProvider) outcome() (Classifier, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch p.state {
	case StageReady:
		return p.model, true, nil
	case StageFailed:
		return nil, true, p.err
	}
	return nil, false, nil
}

func (p *ModelProvider) setState(state Stage) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// State returns current provider state
func (p *ModelProvider) State() Stage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err returns acquisition failure if any
func (p *ModelProvider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Info returns information about loaded artifact
func (p *ModelProvider) Info() (ArtifactInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info, p.state == StageReady
}

func (p *ModelProvider) load(ctx context.Context) (Classifier, ArtifactInfo, error) {
	var info ArtifactInfo
	path := p.config.Path
	source := "local"
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, info, stageError(StageAcquiring, FileIOError, err)
		}
		if len(p.sources) == 0 {
			return nil, info, stageError(StageAcquiring, AcquisitionError, fmt.Errorf("%w for %s", ErrNoSource, path))
		}
		src := p.sources[0]
		if Config.Verbose > 0 {
			log.Printf("model %s is absent, acquire it from %s source", path, src.Name())
		}
		if err := src.Fetch(ctx, path); err != nil {
			return nil, info, stageError(StageAcquiring, AcquisitionError, err)
		}
		source = src.Name()
	}

	data, err := readArtifact(path, p.config.MinSize)
	if err != nil {
		if source != "local" {
			// do not keep rejected artifact, otherwise it would be taken as
			// local one on the next start
			os.Remove(path)
		}
		code := FileIOError
		if errors.Is(err, ErrUndersized) || errors.Is(err, ErrMarkup) {
			code = ArtifactIntegrityError
		}
		return nil, info, stageError(StageAcquiring, code, err)
	}

	model, spec, decoder, err := decodeModel(data, p.decoders)
	if err != nil {
		return nil, info, stageError(StageAcquiring, DeserializationError, err)
	}
	if err := checkModel(p.config, spec); err != nil {
		return nil, info, stageError(StageAcquiring, ArtifactIntegrityError, err)
	}
	info = ArtifactInfo{
		Name:     p.config.Name,
		Path:     path,
		Size:     int64(len(data)),
		SHA256:   checksum(data),
		Source:   source,
		Decoder:  decoder,
		Type:     spec.Type,
		Version:  spec.Version,
		Features: spec.Features,
		LoadedAt: time.Now(),
	}
	return model, info, nil
}

// helper function to check that deserialized model is the one described by
// configuration (or meta-data record)
func checkModel(cfg ModelConfig, spec ModelSpec) error {
	if cfg.Type != "" && cfg.Type != spec.Type {
		return fmt.Errorf("%w: type %q, expected %q", ErrModelMismatch, spec.Type, cfg.Type)
	}
	if cfg.Version != "" && cfg.Version != spec.Version {
		return fmt.Errorf("%w: version %q, expected %q", ErrModelMismatch, spec.Version, cfg.Version)
	}
	return nil
}
