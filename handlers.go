package main

// handlers module holds all HTTP handlers functions
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// maximum size of uploaded file
const maxUploadSize = 32 << 20

// HTTPResponse rpresents HTTP JSON response
type HTTPResponse struct {
	Method      string      `json:"method"`           // HTTP method
	Path        string      `json:"path"`             // URL path
	UserAgent   string      `json:"user_agent"`       // http user-agent field
	RemoteAddr  string      `json:"remote_addr"`      // http.Request remote address
	HTTPCode    int         `json:"http_code"`        // HTTP error code
	Code        int         `json:"code"`             // server status code
	Reason      string      `json:"reason"`           // error code reason
	Timestamp   string      `json:"timestamp"`        // timestamp of the response
	Error       string      `json:"error,omitempty"`  // error message
	Result      *Result     `json:"result,omitempty"` // prediction results
	Data        interface{} `json:"data,omitempty"`   // HTTP response data
	ElapsedTime string      `json:"elapsed_time"`     // elapsed time of HTTP request
}

// helper function to check if client asks for JSON response
func jsonRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// helper function to check if HTTP request contains form-data
func formData(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "form-data")
}

// helper function to parse given template and return HTML page
func tmplPage(tmpl string, tmplData TmplRecord) string {
	if tmplData == nil {
		tmplData = make(TmplRecord)
	}
	var templates Templates
	return templates.Tmpl(tmpl, tmplData)
}

// helper function to generate either HTML or JSON response
func httpResponse(w http.ResponseWriter, r *http.Request, tmpl TmplRecord) {
	httpCode := tmpl.GetInt("HttpCode")
	code := tmpl.GetInt("Code")
	if !jsonRequest(r) {
		top := tmplPage("top.tmpl", tmpl)
		bottom := tmplPage("bottom.tmpl", tmpl)
		page := tmplPage(tmpl.GetString("Template"), tmpl)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if httpCode != 0 {
			w.WriteHeader(httpCode)
		}
		w.Write([]byte(top + page + bottom))
		return
	}
	if httpCode == 0 {
		httpCode = http.StatusOK
	}
	hrec := HTTPResponse{
		Method:      r.Method,
		Path:        r.RequestURI,
		RemoteAddr:  r.RemoteAddr,
		UserAgent:   r.Header.Get("User-agent"),
		Timestamp:   time.Now().String(),
		Code:        code,
		Reason:      errorMessage(code),
		HTTPCode:    httpCode,
		Error:       tmpl.GetError(),
		Data:        tmpl["Data"],
		ElapsedTime: tmpl.GetElapsedTime(),
	}
	if res, ok := tmpl["Result"].(*Result); ok {
		hrec.Result = res
	}
	if Config.Verbose > 1 {
		log.Printf("HTTPResponse: %+v", hrec)
	}
	data, err := json.MarshalIndent(hrec, "", "   ")
	if err != nil {
		data = []byte(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(data)
}

// helper function to provide standard HTTP error reply
func httpError(w http.ResponseWriter, r *http.Request, tmpl TmplRecord, code int, err error, httpCode int) {
	tmpl["Code"] = code
	tmpl["Reason"] = errorMessage(code)
	tmpl["Error"] = err
	tmpl["HttpCode"] = httpCode
	tmpl["Content"] = err.Error()
	tmpl["Template"] = "error.tmpl"
	httpResponse(w, r, tmpl)
}

// helper function to make initial template struct
func makeTmpl(title string) TmplRecord {
	tmpl := make(TmplRecord)
	tmpl["Title"] = title
	tmpl["Base"] = Config.Base
	tmpl["ServerInfo"] = info()
	tmpl["StartTime"] = time.Now()
	return tmpl
}

// IndexHandler provides upload page
func (s *Service) IndexHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Heartbeat classification")
	tmpl["State"] = s.provider.State().String()
	if err := s.provider.Err(); err != nil {
		tmpl["Error"] = err
	}
	tmpl["Columns"] = NumFeatures
	tmpl["Template"] = "index.tmpl"
	httpResponse(w, r, tmpl)
}

// helper function to get uploaded content and its name from HTTP request,
// either multipart form field "file" or request body
func upload(r *http.Request) (io.ReadCloser, string, error) {
	if formData(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, "", err
		}
		file, handler, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		return file, handler.Filename, nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return nil, "", errors.New("no CSV file is provided")
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "-"
	}
	return r.Body, name, nil
}

// PredictHandler classifies uploaded CSV file
func (s *Service) PredictHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Heartbeat predictions")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, name, err := upload(r)
	if err != nil {
		httpError(w, r, tmpl, BadRequest, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.pipeline.Run(r.Context(), name, file)
	if err != nil {
		code := errorCode(err)
		log.Printf("ERROR: unable to classify %s, error %v", name, err)
		httpError(w, r, tmpl, code, err, httpStatus(code))
		return
	}
	if Config.Verbose > 0 {
		log.Printf("request %s: classified %d rows of %s (cached=%v)", result.ID, result.Rows, name, result.Cached)
	}
	tmpl["Result"] = result
	tmpl["Template"] = "predictions.tmpl"
	httpResponse(w, r, tmpl)
}

// ModelHandler provides information about loaded classifier
func (s *Service) ModelHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Heartbeat model")
	info, ok := s.provider.Info()
	if !ok {
		err := s.provider.Err()
		if err == nil {
			err = errors.New("model is not loaded yet, state " + s.provider.State().String())
			httpError(w, r, tmpl, AcquisitionError, err, http.StatusServiceUnavailable)
			return
		}
		code := errorCode(err)
		httpError(w, r, tmpl, code, err, httpStatus(code))
		return
	}
	tmpl["Info"] = info
	tmpl["Data"] = info
	tmpl["Template"] = "model.tmpl"
	httpResponse(w, r, tmpl)
}

// StatusHandler handles status of the server
func (s *Service) StatusHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Heartbeat status")
	status := serverStatus(s.provider)
	tmpl["Status"] = status
	tmpl["Data"] = status
	tmpl["Template"] = "status.tmpl"
	httpResponse(w, r, tmpl)
}

// DocsHandler provides documentation page
func DocsHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Heartbeat documentation")
	content, err := mdToHTML("docs.md")
	if err != nil {
		httpError(w, r, tmpl, FileIOError, err, http.StatusInternalServerError)
		return
	}
	tmpl["Content"] = template.HTML(content)
	tmpl["Data"] = content
	tmpl["Template"] = "docs.tmpl"
	httpResponse(w, r, tmpl)
}
