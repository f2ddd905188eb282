package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/mgo.v2/bson"
)

// Record define ML mongo record which describes where model artifact
// can be obtained
type Record struct {
	Model       string   `json:"model" bson:"model"`             // model name
	Type        string   `json:"type" bson:"type"`               // model type
	Version     string   `json:"version" bson:"version"`         // ML version
	Description string   `json:"description" bson:"description"` // ML model description
	Reference   string   `json:"reference" bson:"reference"`     // ML reference URL
	Bundle      string   `json:"bundle" bson:"bundle"`           // ML bundle (archive) file
	URL         string   `json:"url" bson:"url"`                 // remote location of the model
	Parts       []string `json:"parts" bson:"parts"`             // ordered bundle parts
	MinSize     int64    `json:"min_size" bson:"min_size"`       // minimal artifact size
}

// ToJSON provides string representation of Record
func (r Record) ToJSON() string {
	// create pretty JSON representation of the record
	data, _ := json.MarshalIndent(r, "", "    ")
	return string(data)
}

// Apply fills model configuration attributes which are not set
func (r Record) Apply(cfg ModelConfig) ModelConfig {
	if cfg.Type == "" {
		cfg.Type = r.Type
	}
	if cfg.Version == "" {
		cfg.Version = r.Version
	}
	if cfg.URL == "" {
		cfg.URL = r.URL
	}
	if cfg.Archive == "" {
		cfg.Archive = r.Bundle
	}
	if len(cfg.Parts) == 0 {
		cfg.Parts = r.Parts
	}
	if r.MinSize > cfg.MinSize {
		cfg.MinSize = r.MinSize
	}
	return cfg
}

// MetaData represents meta-data database object
type MetaData struct {
	DBName string
	DBColl string
}

// helper function to build look-up spec for given model and version
func recordSpec(model, version string) bson.M {
	spec := bson.M{}
	if model != "" {
		spec["model"] = model
	}
	if version != "" {
		spec["version"] = version
	}
	return spec
}

// Insert inserts (or replaces) record in MetaData database
func (m *MetaData) Insert(rec Record) error {
	return MongoUpsert(m.DBName, m.DBColl, []Record{rec})
}

// Remove removes given model from MetaData database
func (m *MetaData) Remove(model string) error {
	return MongoRemove(m.DBName, m.DBColl, recordSpec(model, ""))
}

// Record retrieves single record of given model from MetaData database
func (m *MetaData) Record(model, version string) (Record, error) {
	var rec Record
	records, err := MongoGet(m.DBName, m.DBColl, recordSpec(model, version), 0, -1)
	if err != nil {
		return rec, err
	}
	// we should have only one record from MetaData
	if len(records) != 1 {
		return rec, fmt.Errorf("incorrect number of MetaData records for model=%s version=%s: %d", model, version, len(records))
	}
	rec = records[0]
	if Config.Verbose > 0 {
		log.Printf("meta-data record %s", rec.ToJSON())
	}
	return rec, nil
}

// helper function to read model record from JSON file
func readRecord(fname string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(filepath.Clean(fname))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	if rec.Model == "" {
		return rec, fmt.Errorf("record %s has no model name", fname)
	}
	if rec.Type != "" && !InList(rec.Type, ModelTypes) {
		return rec, fmt.Errorf("record %s has unsupported model type %q, please provide one of %v", fname, rec.Type, ModelTypes)
	}
	return rec, nil
}

// helper function to return MetaData service of the configuration
func metaData() (*MetaData, error) {
	if Config.DBURI == "" {
		return nil, errors.New("meta-data database is not configured, please provide db_uri")
	}
	return &MetaData{DBName: Config.DBName, DBColl: Config.DBColl}, nil
}

// registerModel stores model record from given file in MetaData database
func registerModel(fname string) error {
	rec, err := readRecord(fname)
	if err != nil {
		return err
	}
	metadata, err := metaData()
	if err != nil {
		return err
	}
	if err := metadata.Insert(rec); err != nil {
		return err
	}
	log.Printf("registered model %s version %s", rec.Model, rec.Version)
	return nil
}

// unregisterModel removes all records of given model from MetaData database
func unregisterModel(model string) error {
	if model == "" {
		return errors.New("no model name is provided")
	}
	metadata, err := metaData()
	if err != nil {
		return err
	}
	if err := metadata.Remove(model); err != nil {
		return err
	}
	log.Printf("unregistered model %s", model)
	return nil
}
