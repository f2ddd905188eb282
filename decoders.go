package main

import (
	"bytes"
	"compress/gzip"
	"compress/lzw"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Decoder represents deserialization strategy of model artifact
type Decoder interface {
	Name() string
	Decode(data []byte) (ModelSpec, error)
}

// JSONDecoder reads plain JSON model specification
type JSONDecoder struct{}

// Name implements Decoder interface
func (d JSONDecoder) Name() string { return "json" }

// Decode implements Decoder interface
func (d JSONDecoder) Decode(data []byte) (ModelSpec, error) {
	return decodeJSON(bytes.NewReader(data))
}

// GzipDecoder reads gzip compressed JSON model specification
type GzipDecoder struct{}

// Name implements Decoder interface
func (d GzipDecoder) Name() string { return "gzip" }

// Decode implements Decoder interface
func (d GzipDecoder) Decode(data []byte) (ModelSpec, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return ModelSpec{}, err
	}
	defer reader.Close()
	return decodeJSON(reader)
}

// LZWDecoder reads LZW (LSB, 8 bit literals) compressed JSON model specification
type LZWDecoder struct{}

// Name implements Decoder interface
func (d LZWDecoder) Name() string { return "lzw" }

// Decode implements Decoder interface
func (d LZWDecoder) Decode(data []byte) (ModelSpec, error) {
	reader := lzw.NewReader(bytes.NewReader(data), lzw.LSB, 8)
	defer reader.Close()
	return decodeJSON(reader)
}

// GobDecoder reads gob encoded model specification
type GobDecoder struct{}

// Name implements Decoder interface
func (d GobDecoder) Name() string { return "gob" }

// Decode implements Decoder interface
func (d GobDecoder) Decode(data []byte) (ModelSpec, error) {
	var spec ModelSpec
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&spec)
	return spec, err
}

func decodeJSON(r io.Reader) (ModelSpec, error) {
	var spec ModelSpec
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&spec)
	return spec, err
}

// decoders in their default order
var decoders = []Decoder{JSONDecoder{}, GzipDecoder{}, LZWDecoder{}, GobDecoder{}}

// DecoderNames returns names of supported decoders in default order
func DecoderNames() []string {
	var names []string
	for _, d := range decoders {
		names = append(names, d.Name())
	}
	return names
}

// NewDecoders returns decoders for given names keeping their order
func NewDecoders(names []string) ([]Decoder, error) {
	var out []Decoder
	for _, name := range names {
		var found bool
		for _, d := range decoders {
			if d.Name() == name {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unsupported decoder %q, please provide one of %v", name, DecoderNames())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no decoders, please provide one of %v", DecoderNames())
	}
	return out, nil
}

// decodeModel tries decoders in order, the first one which yields valid
// classifier wins, otherwise all failures are reported together
func decodeModel(data []byte, decoders []Decoder) (Classifier, ModelSpec, string, error) {
	var errs error
	for _, d := range decoders {
		spec, err := d.Decode(data)
		if err == nil {
			var clf Classifier
			clf, err = NewClassifier(spec)
			if err == nil {
				return clf, spec, d.Name(), nil
			}
		}
		errs = multierr.Append(errs, fmt.Errorf("%s decoder: %w", d.Name(), err))
	}
	return nil, ModelSpec{}, "", fmt.Errorf("%w: %v", ErrNotDecoded, errs)
}
