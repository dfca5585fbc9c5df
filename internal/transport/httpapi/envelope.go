package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Response codes in the JSON envelope.
const (
	codeSuccess      = "success"
	codeFail         = "fail"
	codeUnauthorized = "unauthorized"
)

// envelope is the uniform response shape: {code, data?, message?, total?}.
type envelope struct {
	Code    string `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: codeSuccess, Data: data})
}

func okMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Code: codeSuccess, Message: message})
}

func okList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, envelope{Code: codeSuccess, Data: data, Total: &total})
}

func fail(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Code: codeFail, Message: message})
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, envelope{Code: codeUnauthorized, Message: "token expired"})
}

// FlexID decodes an id that clients send as a JSON number, a numeric
// string, an empty string, or null. Empty and null read as zero ("unset").
type FlexID int64

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", s, err)
		}
		*f = FlexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) Int64() int64 { return int64(f) }

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
