package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}

	respondJSON(w, status, map[string]string{"error": userMsg})
}

// writeJSONLine encodes one payload followed by a newline (SSE framing)
func writeJSONLine(w io.Writer, payload interface{}) error {
	return json.NewEncoder(w).Encode(payload)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
