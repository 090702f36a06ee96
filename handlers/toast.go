package handlers

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"
)

// SetToast sets the HX-Trigger response header so an HTMX front end can show
// a toast notification. If an HX-Trigger header already exists, the toast
// payload is merged into the existing JSON object.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := map[string]string{
		"message": message,
		"type":    toastType,
	}

	merged := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &merged); err != nil {
			logrus.WithError(err).Warn("toast: existing HX-Trigger is not valid JSON, overwriting")
			merged = map[string]any{}
		}
	}
	merged["showToast"] = toast

	data, err := json.Marshal(merged)
	if err != nil {
		logrus.WithError(err).Error("toast: failed to marshal HX-Trigger JSON")
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// ErrorToast sets an error toast and answers with a JSON error body.
// HX-Reswap: none keeps HTMX from swapping the error into the DOM.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.JSON(statusCode, map[string]string{"error": message})
}
