package api

import (
	"encoding/json"
	"net/http"
)

// problem is an RFC 7807 "problem details" response body.
// https://tools.ietf.org/html/rfc7807
type problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const contentTypeProblemJSON = "application/problem+json"

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", contentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func badRequest(w http.ResponseWriter, detail string)   { writeProblem(w, http.StatusBadRequest, "Bad Request", detail) }
func unauthorized(w http.ResponseWriter, detail string)  { writeProblem(w, http.StatusUnauthorized, "Unauthorized", detail) }
func notFoundProblem(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusNotFound, "Not Found", detail)
}
func conflictProblem(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusConflict, "Conflict", detail)
}
func rangeNotSatisfiable(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusRequestedRangeNotSatisfiable, "Range Not Satisfiable", detail)
}
func internalProblem(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
