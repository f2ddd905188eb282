package main

// heartbeat - Go implementation of heartbeat classification server
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	_ "expvar"         // to be used for monitoring, see https://github.com/divan/expvarmon
	_ "net/http/pprof" // profiler, see https://golang.org/pkg/net/http/pprof/
)

// version of the code
var version string

// helper function to return version string of the server
func info() string {
	goVersion := runtime.Version()
	tstamp := time.Now().Format("2006-01-02")
	return fmt.Sprintf("heartbeat git=%s go=%s date=%s", version, goVersion, tstamp)
}

func main() {
	var config string
	flag.StringVar(&config, "config", "", "configuration file (JSON or YAML)")
	var register string
	flag.StringVar(&register, "register", "", "register model record (JSON file) in meta-data database and exit")
	var unregister string
	flag.StringVar(&unregister, "unregister", "", "remove records of given model from meta-data database and exit")
	var version bool
	flag.BoolVar(&version, "version", false, "print version information about the server")
	flag.Parse()
	if version {
		fmt.Println(info())
		os.Exit(0)
	}
	err := parseConfig(config)
	if err != nil {
		log.Fatalf("unable to parse config %s, error %v\n", config, err)
	}

	// configure logger with log time, filename, and line number
	log.SetFlags(0)
	if Config.Verbose > 0 {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	if err := setupLogger(); err != nil {
		log.Fatalf("unable to setup logger, error %v", err)
	}

	if Config.Verbose > 0 {
		log.Printf("%+v\n", Config)
	}

	// manage meta-data records
	if register != "" {
		if err := registerModel(register); err != nil {
			log.Fatalf("unable to register model record %s, error %v", register, err)
		}
		return
	}
	if unregister != "" {
		if err := unregisterModel(unregister); err != nil {
			log.Fatalf("unable to unregister model %s, error %v", unregister, err)
		}
		return
	}

	// start classification server
	Server()
}
