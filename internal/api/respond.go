package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// MessageResponse is the {"msg": ...} body the web client shows to users.
type MessageResponse struct {
	Msg   string `json:"msg" example:"Session removed"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Msg: msg})
}

// formValue returns the first non-blank value among the given field names.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return v
		}
	}
	return ""
}
