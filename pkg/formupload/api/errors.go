package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	s3storage "github.com/tendant/simple-form-upload/pkg/formupload/storage/s3"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a stable code and a human readable message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// classify maps an error to an HTTP status and error code. Signing failures are
// server misconfiguration, never the caller's fault
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, s3storage.ErrObjectNotFound):
		return http.StatusNotFound, "upload_not_found"
	case errors.Is(err, s3storage.ErrBucketNotFound):
		return http.StatusServiceUnavailable, "bucket_not_found"
	case formupload.IsInvalidConfig(err):
		return http.StatusInternalServerError, "invalid_upload_config"
	case formupload.IsMissingInput(err):
		return http.StatusInternalServerError, "missing_signing_input"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
