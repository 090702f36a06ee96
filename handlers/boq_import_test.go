package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"

	"tenderboq/testhelpers"
)

var sampleSheet = [][]string{
	{"Item No", "Description", "Qty", "Unit"},
	{"1", "Substructure", "", ""},
	{"1.1", "Excavation", "120", "m3"},
	{"1.2", "Plain cement concrete", "12.5", "m3"},
}

func postImport(t *testing.T, app *pocketbase.PocketBase, tenderID, fileName string, content []byte, fields map[string]string) (*httptest.ResponseRecorder, ImportResponse) {
	t.Helper()

	handler := HandleBOQImport(app, testConfig())

	req := newUploadRequest(t, "/tenders/"+tenderID+"/boq/import", fileName, content, fields)
	req.SetPathValue("tenderId", tenderID)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var resp ImportResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
	}
	return rec, resp
}

func TestHandleBOQImport_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Import Tender")

	rec, resp := postImport(t, app, tender.Id, "boq.csv", testhelpers.CSV(t, sampleSheet), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.ImportID == "" {
		t.Error("expected an import id")
	}
	if resp.Result.ItemsCreated != 2 || resp.Result.SkippedRows != 1 || resp.Result.SectionsCreated != 1 {
		t.Errorf("result = %+v", resp.Result)
	}
	if rec.Header().Get("HX-Trigger") == "" {
		t.Error("expected a success toast")
	}

	items, _ := app.FindRecordsByFilter("boq_items", "tender = {:t}", "sort_order", 0, 0, map[string]any{"t": tender.Id})
	if len(items) != 2 {
		t.Fatalf("expected 2 stored items, got %d", len(items))
	}
	if items[0].GetString("item_number") != "1.1" || items[0].GetString("quantity") != "120" {
		t.Errorf("first item = %q qty %q", items[0].GetString("item_number"), items[0].GetString("quantity"))
	}

	imp, err := app.FindRecordById("boq_imports", resp.ImportID)
	if err != nil {
		t.Fatalf("import record not found: %v", err)
	}
	if imp.GetString("original_file") == "" {
		t.Error("expected the original file to be stored")
	}
}

func TestHandleBOQImport_ReimportReplaces(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Reimport Tender")
	content := testhelpers.CSV(t, sampleSheet)

	for i := 0; i < 2; i++ {
		rec, _ := postImport(t, app, tender.Id, "boq.csv", content, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("import %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	items, _ := app.FindRecordsByFilter("boq_items", "tender = {:t}", "", 0, 0, map[string]any{"t": tender.Id})
	if len(items) != 2 {
		t.Errorf("expected 2 items after reimport, got %d", len(items))
	}
	sections, _ := app.FindRecordsByFilter("boq_sections", "tender = {:t}", "", 0, 0, map[string]any{"t": tender.Id})
	if len(sections) != 1 {
		t.Errorf("expected 1 section after reimport, got %d", len(sections))
	}
}

func TestHandleBOQImport_DryRun(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Dry Run Tender")

	rec, resp := postImport(t, app, tender.Id, "boq.csv", testhelpers.CSV(t, sampleSheet), map[string]string{"dry_run": "true"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !resp.DryRun || resp.ImportID != "" {
		t.Errorf("dry run response = %+v", resp)
	}
	if resp.Result.ItemsCreated != 2 {
		t.Errorf("items = %d, want 2", resp.Result.ItemsCreated)
	}

	items, _ := app.FindAllRecords("boq_items")
	if len(items) != 0 {
		t.Errorf("dry run stored %d items", len(items))
	}
}

func TestHandleBOQImport_PostedMapping(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Mapped Tender")

	sheet := [][]string{
		{"Ref", "Work", "Amount", "Measure", "Sub"},
		{"2.1", "Concrete Group", "", "", ""},
		{"", "Rebar", "4", "MT", "a"},
	}
	mapping := "item_number: Ref\ndescription: Work\nquantity: Amount\nuom: Measure\nsub_item_label: Sub\n"

	rec, resp := postImport(t, app, tender.Id, "boq.csv", testhelpers.CSV(t, sheet), map[string]string{"mapping": mapping})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Result.ItemsCreated != 2 {
		t.Fatalf("items = %d, want 2", resp.Result.ItemsCreated)
	}

	sub, err := app.FindFirstRecordByData("boq_items", "item_number", "2.1.a")
	if err != nil {
		t.Fatalf("sub-item 2.1.a not stored: %v", err)
	}
	group, _ := app.FindFirstRecordByData("boq_items", "item_number", "2.1")
	if sub.GetString("parent_item") != group.Id {
		t.Errorf("sub-item parent = %q, want %q", sub.GetString("parent_item"), group.Id)
	}
	if !group.GetBool("is_group") {
		t.Error("2.1 should be stored as a group")
	}
}

func TestHandleBOQImport_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Error Tender")
	content := testhelpers.CSV(t, sampleSheet)

	tests := []struct {
		name     string
		tenderID string
		fileName string
		content  []byte
		fields   map[string]string
		want     int
	}{
		{"unknown tender", "missing", "boq.csv", content, nil, http.StatusNotFound},
		{"no file", tender.Id, "", nil, nil, http.StatusBadRequest},
		{"unsupported format", tender.Id, "boq.pdf", content, nil, http.StatusBadRequest},
		{"header only", tender.Id, "boq.csv", testhelpers.CSV(t, sampleSheet[:1]), nil, http.StatusBadRequest},
		{"bad mapping", tender.Id, "boq.csv", content, map[string]string{"mapping": "price: Rate\n"}, http.StatusBadRequest},
		{"mapped column missing", tender.Id, "boq.csv", content, map[string]string{"mapping": "item_number: Ref\n"}, http.StatusBadRequest},
		{"bad header row", tender.Id, "boq.csv", content, map[string]string{"header_row": "-1"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := postImport(t, app, tt.tenderID, tt.fileName, tt.content, tt.fields)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleBOQValidationReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Validate Tender")

	sheet := [][]string{
		{"Item No", "Description", "Qty", "Unit"},
		{"1.1", "Excavation", "lots", "m3"},
		{"", "", "5", "m3"},
		{"1.2", "Concrete", "3", "m3"},
	}

	handler := HandleBOQValidationReport(app, testConfig())
	req := newUploadRequest(t, "/tenders/"+tender.Id+"/boq/validate", "boq.csv", testhelpers.CSV(t, sheet), nil)
	req.SetPathValue("tenderId", tender.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-BOQ-Error-Rows") != "1" {
		t.Errorf("error rows = %q, want 1", rec.Header().Get("X-BOQ-Error-Rows"))
	}
	if rec.Header().Get("X-BOQ-Warning-Rows") != "1" {
		t.Errorf("warning rows = %q, want 1", rec.Header().Get("X-BOQ-Warning-Rows"))
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a workbook body")
	}
}
