package httpx

import (
	"encoding/json"
	"net/http"
)

// Every endpoint answers with the same envelope.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	Page     int  `json:"page"`
	Limit    int  `json:"limit"`
	Total    int  `json:"total"`
	PrevPage *int `json:"prev_page"`
	NextPage *int `json:"next_page"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{Success: true, Message: message, Data: data})
}

func writeSuccessMeta(w http.ResponseWriter, code int, message string, data any, meta Meta) {
	writeJSON(w, code, envelope{Success: true, Message: message, Data: data, Meta: &meta})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Success: false, Message: message})
}
