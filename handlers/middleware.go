package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"
)

// RequestLogMiddleware logs one line per request with its method, path,
// status and duration. Requests under /tenders/ also carry the tender id.
func RequestLogMiddleware(logger *logrus.Entry) func(e *core.RequestEvent) error {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(l)
	}
	return func(e *core.RequestEvent) error {
		start := time.Now()
		err := e.Next()

		status := e.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := logrus.Fields{
			"method":   e.Request.Method,
			"path":     e.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		}
		if tenderID := e.Request.PathValue("tenderId"); tenderID != "" {
			fields["tender"] = tenderID
		}

		entry := logger.WithFields(fields)
		switch {
		case err != nil:
			entry.WithError(err).Error("request failed")
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
		return err
	}
}
