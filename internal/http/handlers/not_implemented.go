package handlers

import "net/http"

const notImplementedMessage = "This API is not implemented yet. Coming in Phase 2."

// NotImplemented answers 501 for reserved routes (customers, orders).
func NotImplemented(w http.ResponseWriter, r *http.Request) {
	jsonError(w, notImplementedMessage, http.StatusNotImplemented)
}
