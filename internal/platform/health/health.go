// Package health serves the static liveness acknowledgment shared by all
// flixtube services.
package health

import "net/http"

// Handler answers GET / with 200 "ok".
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
