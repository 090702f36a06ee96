package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

func TestSetToast_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	SetToast(e, "success", "Import complete")

	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}

	var parsed map[string]map[string]string
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	toast, ok := parsed["showToast"]
	if !ok {
		t.Fatal("expected showToast key in HX-Trigger JSON")
	}
	if toast["message"] != "Import complete" {
		t.Errorf("expected message %q, got %q", "Import complete", toast["message"])
	}
	if toast["type"] != "success" {
		t.Errorf("expected type %q, got %q", "success", toast["type"])
	}
}

func TestSetToast_MergesExistingTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", `{"boqImported":true}`)

	SetToast(e, "info", "Merged")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if _, ok := parsed["boqImported"]; !ok {
		t.Error("existing trigger was lost")
	}
	if _, ok := parsed["showToast"]; !ok {
		t.Error("showToast was not added")
	}
}

func TestSetToast_InvalidExistingTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", "not-json")

	SetToast(e, "warning", "Overwritten")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if len(parsed) != 1 {
		t.Errorf("expected only showToast, got %v", parsed)
	}
}

func TestErrorToast(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec

	if err := ErrorToast(e, http.StatusBadRequest, "Bad file"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap: none")
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "Bad file" {
		t.Errorf("error = %q, want %q", body["error"], "Bad file")
	}
}
