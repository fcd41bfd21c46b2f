package common

import (
	"encoding/json"
	"net/http"
	"time"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondPage sends one page of a listing with its pagination block.
func RespondPage(w http.ResponseWriter, initTime time.Time, message string, data any, page *dtos.PaginationDTO) {
	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
		Pagination:   page,
	}

	writeJSON(w, http.StatusOK, response)
}

// RespondError maps err to its status code. Domain errors keep their
// message; anything else is logged and replaced by fallback.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, fallback string) {
	code := domainerr.HTTPStatus(err)
	kind := domainerr.KindOf(err)
	if code == http.StatusInternalServerError {
		logging.Error("Request failed", "error", err)
		kind = domainerr.KindInternal
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      domainerr.PublicMessage(err, fallback),
		Error:        string(kind),
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
