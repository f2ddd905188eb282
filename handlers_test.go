package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// helper function to create test router with loaded logistic model
func testRouter(t *testing.T, acquire bool) http.Handler {
	t.Helper()
	initTestConfig()
	if err := initLimiter(Config.LimiterPeriod); err != nil {
		t.Fatal(err)
	}
	path := writeModel(t, t.TempDir(), logisticSpec())
	svc, err := NewService(ModelConfig{Name: "test", Path: path, MinSize: 10, Decoders: DecoderNames()}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if acquire {
		if _, err := svc.provider.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return bunRouter(svc)
}

// helper function to decode JSON response
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) HTTPResponse {
	t.Helper()
	var rec HTTPResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("unable to decode response %s, error %v", rr.Body.String(), err)
	}
	return rec
}

// TestPredictHandlerBody
func TestPredictHandlerBody(t *testing.T) {
	router := testRouter(t, true)
	row := valuesRow(NumFeatures, "0")
	row[0] = "1"
	content := csvContent(quotedHeader(NumFeatures), row, valuesRow(NumFeatures, "-1"))
	req := httptest.NewRequest("POST", "/predict?name=beats.csv", strings.NewReader(content))
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status %d: %s", rr.Code, rr.Body.String())
	}
	rec := decodeResponse(t, rr)
	if rec.Result == nil || rec.Result.File != "beats.csv" || rec.Result.Rows != 2 {
		t.Fatalf("wrong result %+v", rec.Result)
	}
	if rec.Result.Predictions[0].Label != "Abnormal" || rec.Result.Predictions[1].Label != "Normal" {
		t.Errorf("wrong predictions %+v", rec.Result.Predictions)
	}
}

// TestPredictHandlerForm
func TestPredictHandlerForm(t *testing.T) {
	router := testRouter(t, false)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "beats.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(csvContent(quotedHeader(NumFeatures), valuesRow(NumFeatures, "0"))))
	writer.Close()

	req := httptest.NewRequest("POST", "/predict", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Normal") || !strings.Contains(body, "beats.csv") {
		t.Errorf("predictions page does not contain results: %s", body)
	}
}

// TestPredictHandlerSchemaError
func TestPredictHandlerSchemaError(t *testing.T) {
	router := testRouter(t, true)
	content := csvContent(quotedHeader(99), valuesRow(99, "0"))
	req := httptest.NewRequest("POST", "/predict", strings.NewReader(content))
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("wrong status %d", rr.Code)
	}
	rec := decodeResponse(t, rr)
	if rec.Code != SchemaError || rec.Result != nil || !strings.Contains(rec.Error, "columns") {
		t.Errorf("wrong error response %+v", rec)
	}
}

// TestPredictHandlerNoFile
func TestPredictHandlerNoFile(t *testing.T) {
	router := testRouter(t, true)
	req := httptest.NewRequest("POST", "/predict", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("wrong status %d", rr.Code)
	}
}

// TestPredictHandlerModelUnavailable
func TestPredictHandlerModelUnavailable(t *testing.T) {
	initTestConfig()
	initLimiter(Config.LimiterPeriod)
	path := filepath.Join(t.TempDir(), "absent.json")
	svc, err := NewService(ModelConfig{Name: "test", Path: path, MinSize: 10, Decoders: DecoderNames()}, 0)
	if err != nil {
		t.Fatal(err)
	}
	router := bunRouter(svc)
	content := csvContent(quotedHeader(NumFeatures), valuesRow(NumFeatures, "0"))
	req := httptest.NewRequest("POST", "/predict", strings.NewReader(content))
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("wrong status %d", rr.Code)
	}
	if rec := decodeResponse(t, rr); rec.Code != AcquisitionError {
		t.Errorf("wrong code %d", rec.Code)
	}
}

// TestModelHandler
func TestModelHandler(t *testing.T) {
	router := testRouter(t, true)
	req := httptest.NewRequest("GET", "/model", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status %d", rr.Code)
	}
	rec := decodeResponse(t, rr)
	data, ok := rec.Data.(map[string]interface{})
	if !ok || data["type"] != "logistic" || data["decoder"] != "json" {
		t.Errorf("wrong model info %+v", rec.Data)
	}
}

// TestModelHandlerNotLoaded
func TestModelHandlerNotLoaded(t *testing.T) {
	router := testRouter(t, false)
	req := httptest.NewRequest("GET", "/model", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("wrong status %d", rr.Code)
	}
}

// TestPages
func TestPages(t *testing.T) {
	router := testRouter(t, true)
	pages := map[string]string{
		"/":             "multipart/form-data",
		"/status":       "Ready",
		"/docs":         "Heartbeat classification server",
		"/css/main.css": "font-family",
	}
	for path, expect := range pages {
		req := httptest.NewRequest("GET", path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: wrong status %d", path, rr.Code)
			continue
		}
		if !strings.Contains(rr.Body.String(), expect) {
			t.Errorf("%s: page does not contain %q", path, expect)
		}
	}
}

// TestTmplPage
func TestTmplPage(t *testing.T) {
	initTestConfig()
	var templates Templates
	tmpl := makeTmpl("test")
	tmpl["Reason"] = "first reason"
	tmpl["Content"] = "first content"
	first := templates.Tmpl("error.tmpl", tmpl)
	tmpl["Reason"] = "second reason"
	second := templates.Tmpl("error.tmpl", tmpl)
	if !strings.Contains(first, "first reason") || !strings.Contains(second, "second reason") {
		t.Errorf("template is not rendered with current data: %q %q", first, second)
	}
	if bottom := templates.Tmpl("bottom.tmpl", tmpl); strings.Contains(bottom, "reason") {
		t.Errorf("wrong template is rendered %q", bottom)
	}
	if page := templates.Tmpl("none.tmpl", tmpl); page != "" {
		t.Errorf("missing template should yield empty page, got %q", page)
	}
}

// TestPredictHandlerEchoesInput
func TestPredictHandlerEchoesInput(t *testing.T) {
	router := testRouter(t, true)
	row := valuesRow(NumFeatures, "0")
	row[0] = "1"
	row[99] = "0.125"
	content := csvContent(quotedHeader(NumFeatures), row)

	// JSON result carries uploaded values next to predictions
	req := httptest.NewRequest("POST", "/predict", strings.NewReader(content))
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status %d: %s", rr.Code, rr.Body.String())
	}
	res := decodeResponse(t, rr).Result
	if res == nil || len(res.Inputs) != 1 || len(res.Columns) != NumFeatures {
		t.Fatalf("uploaded values are not part of result %+v", res)
	}
	if res.Inputs[0][0] != 1 || res.Inputs[0][99] != 0.125 || res.Truncated {
		t.Errorf("wrong uploaded values %v", res.Inputs[0])
	}

	// HTML page renders values in the prediction row
	req = httptest.NewRequest("POST", "/predict", strings.NewReader(content))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	body := rr.Body.String()
	if !strings.Contains(body, `<td class="value">0.125</td>`) || !strings.Contains(body, "<th>99</th>") {
		t.Errorf("predictions page does not show uploaded values: %s", body)
	}
}
