package main

// config module
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelConfig describes where the classifier artifact lives and how to obtain it
type ModelConfig struct {
	Name     string   `json:"name" yaml:"name"`         // model name, used for meta-data look-up
	Type     string   `json:"type" yaml:"type"`         // expected classifier type, optional
	Version  string   `json:"version" yaml:"version"`   // expected classifier version, optional
	Path     string   `json:"path" yaml:"path"`         // local artifact path
	URL      string   `json:"url" yaml:"url"`           // remote download location
	Archive  string   `json:"archive" yaml:"archive"`   // combined archive file (zip, tar, tar.gz)
	Parts    []string `json:"parts" yaml:"parts"`       // ordered split-archive parts
	MinSize  int64    `json:"min_size" yaml:"min_size"` // minimal artifact size in bytes
	Decoders []string `json:"decoders" yaml:"decoders"` // ordered deserialization strategies
	Timeout  int      `json:"timeout" yaml:"timeout"`   // download timeout in seconds
}

// Configuration stores server configuration parameters
type Configuration struct {
	// web server parts
	Base      string `json:"base" yaml:"base"`         // base URL
	LogFile   string `json:"log_file" yaml:"log_file"` // server log file
	Port      int    `json:"port" yaml:"port"`         // server port number
	Verbose   int    `json:"verbose" yaml:"verbose"`   // verbose output
	CacheSize int    `json:"cache_size" yaml:"cache_size"`

	// server parts
	RootCAs       string   `json:"rootCAs" yaml:"rootCAs"`             // server Root CAs path
	ServerCrt     string   `json:"server_cert" yaml:"server_cert"`     // server certificate
	ServerKey     string   `json:"server_key" yaml:"server_key"`       // server certificate
	DomainNames   []string `json:"domain_names" yaml:"domain_names"`   // LetsEncrypt domain names
	LimiterPeriod string   `json:"rate" yaml:"rate"`                   // limiter rate value

	// MetaData parts
	DBURI  string `json:"db_uri" yaml:"db_uri"`   // meta-data server URI
	DBName string `json:"db_name" yaml:"db_name"` // meta-data database name
	DBColl string `json:"db_coll" yaml:"db_coll"` // meta-data database collection

	// classifier parts
	Model ModelConfig `json:"model" yaml:"model"`
}

// Config variable represents configuration object
var Config Configuration

// helper function to parse server configuration file
func parseConfig(configFile string) error {
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		log.Println("Unable to read", err)
		return err
	}
	var cfg Configuration
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		log.Println("Unable to parse", err)
		return err
	}
	setDefaults(&cfg)
	Config = cfg
	return nil
}

// helper function to assign default values to configuration
func setDefaults(cfg *Configuration) {
	if cfg.Port == 0 {
		cfg.Port = 8181
	}
	if cfg.LimiterPeriod == "" {
		cfg.LimiterPeriod = "100-S"
	}
	if cfg.DBName == "" {
		cfg.DBName = "ml"
	}
	if cfg.DBColl == "" {
		cfg.DBColl = "models"
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 128
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "heartbeat_model"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = fmt.Sprintf("%s.json", cfg.Model.Name)
	}
	if cfg.Model.MinSize == 0 {
		cfg.Model.MinSize = 1024
	}
	if len(cfg.Model.Decoders) == 0 {
		cfg.Model.Decoders = DecoderNames()
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = 300
	}
}
