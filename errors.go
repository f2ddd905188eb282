package main

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	GenericError           = iota + 100 // generic error
	DatabaseError                       // 101 database error
	BadRequest                          // 102 bad request
	JsonMarshal                         // 103 json.Marshal error
	MetaDataRecordError                 // 104 Meta data record error
	FileIOError                         // 105 file IO error
	AcquisitionError                    // 106 model acquisition error
	ArtifactIntegrityError              // 107 model artifact integrity error
	DeserializationError                // 108 model deserialization error
	SchemaError                         // 109 input schema error
	InferenceError                      // 110 inference error
	LabelIntegrityError                 // 111 prediction label integrity error
)

// helper function to return human error message for given error code
func errorMessage(code int) string {
	switch code {
	case 0:
		return ""
	case GenericError:
		return "generic error"
	case DatabaseError:
		return "database error"
	case BadRequest:
		return "bad request"
	case JsonMarshal:
		return "JSON marshal error"
	case MetaDataRecordError:
		return "MetaData record error"
	case FileIOError:
		return "file IO error"
	case AcquisitionError:
		return "model acquisition error"
	case ArtifactIntegrityError:
		return "model artifact integrity error"
	case DeserializationError:
		return "model deserialization error"
	case SchemaError:
		return "input schema error"
	case InferenceError:
		return "inference error"
	case LabelIntegrityError:
		return "prediction label integrity error"
	}
	return fmt.Sprintf("Not Implemented error for code %d", code)
}

// helper function to map error code to HTTP status code
func httpStatus(code int) int {
	switch code {
	case BadRequest, SchemaError:
		return http.StatusBadRequest
	case AcquisitionError, ArtifactIntegrityError, DeserializationError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var (
	ErrNoSource       = errors.New("no model source is configured")
	ErrMissingPart    = errors.New("archive part is missing")
	ErrNoMember       = errors.New("model file is not found in archive")
	ErrTransport      = errors.New("transport failure")
	ErrDownloadStatus = errors.New("unexpected download status")
	ErrUndersized     = errors.New("model file seems to be incomplete")
	ErrMarkup         = errors.New("model file looks like HTML")
	ErrNotDecoded     = errors.New("model file can not be decoded")
	ErrModelMismatch  = errors.New("model does not match its description")
	ErrColumnCount    = errors.New("wrong number of columns")
	ErrBadCell        = errors.New("non numeric value")
	ErrNoRows         = errors.New("no data rows")
	ErrPrediction     = errors.New("prediction failed")
	ErrUnknownLabel   = errors.New("unknown prediction code")
)

// PipelineError represents failure of one pipeline stage
type PipelineError struct {
	Stage Stage // stage which failed
	Code  int   // error code
	Err   error // underlying error
}

// Error implements error interface
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed, %s: %v", e.Stage, errorMessage(e.Code), e.Err)
}

// Unwrap returns underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// helper function to construct pipeline error
func stageError(stage Stage, code int, err error) error {
	return &PipelineError{Stage: stage, Code: code, Err: err}
}

// helper function to extract error code from given error
func errorCode(err error) int {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return GenericError
}
