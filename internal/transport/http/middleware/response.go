package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the {"error": ...} envelope that the auth, role and
// rate-limit rejections all answer with.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
