package main

// logging module provides various logging methods
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// helper function to produce unescaped log output
func utcMsg(data []byte) string {
	s := string(data)
	v, e := url.QueryUnescape(s)
	if e == nil {
		return v
	}
	return s
}

// custom rotate logger
type rotateLogWriter struct {
	RotateLogs *rotatelogs.RotateLogs
}

func (w rotateLogWriter) Write(data []byte) (int, error) {
	return w.RotateLogs.Write([]byte(utcMsg(data)))
}

// custom logger
type logWriter struct {
}

func (writer logWriter) Write(data []byte) (int, error) {
	return fmt.Print(utcMsg(data))
}

// helper function to setup log output, either rotating log file or stdout
func setupLogger() error {
	if Config.LogFile == "" {
		log.SetOutput(new(logWriter))
		return nil
	}
	rl, err := rotatelogs.New(LogName(), rotatelogs.WithMaxAge(7*24*time.Hour))
	if err != nil {
		return err
	}
	log.SetOutput(rotateLogWriter{RotateLogs: rl})
	return nil
}

// helper function to log every single user request
func logRequest(w http.ResponseWriter, r *http.Request, start time.Time, status int, bytesOut int64) {
	dataMsg := fmt.Sprintf("[data: %v in %v out]", r.ContentLength, bytesOut)
	referer := r.Referer()
	if referer == "" {
		referer = "-"
	}
	addr := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		addr = xff
	}
	refMsg := fmt.Sprintf("[ref: \"%s\" \"%v\"]", referer, r.Header.Get("User-Agent"))
	respMsg := fmt.Sprintf("[req: %v]", time.Since(start))
	uri, err := url.QueryUnescape(r.RequestURI)
	if err != nil {
		log.Println("unable to unescape request uri", err)
		uri = r.RequestURI
	}
	t := time.Now().Format(time.RFC3339)
	log.Printf("%s %s %d %s %s %s %s %s %s\n", t, r.Proto, status, addr, r.Method, uri, dataMsg, refMsg, respMsg)
}
