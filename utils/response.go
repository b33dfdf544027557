package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func JSONOK(w http.ResponseWriter, payload map[string]interface{}) {
	JSON(w, http.StatusOK, payload)
}

func JSON(w http.ResponseWriter, code int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// JSONErr writes the service's error body shape: {"error": message}.
func JSONErr(w http.ResponseWriter, code int, message string) {
	JSON(w, code, map[string]interface{}{"error": message})
}

func DecodeJSON(r *http.Request, out interface{}) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
