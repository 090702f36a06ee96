package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"

	"tenderboq/config"
	"tenderboq/services"
)

// ImportResponse is the JSON body returned by the import route.
type ImportResponse struct {
	ImportID string                     `json:"import_id,omitempty"`
	DryRun   bool                       `json:"dry_run"`
	FileName string                     `json:"file_name"`
	Mapping  services.FieldMapping      `json:"mapping"`
	Ignored  []string                   `json:"ignored_columns,omitempty"`
	Issues   []services.ValidationIssue `json:"issues"`
	Result   services.ImportResult      `json:"result"`
}

// upload is a parsed multipart BoQ upload.
type upload struct {
	sheet   *services.Sheet
	raw     []byte
	mapping services.FieldMapping
	ignored []string
}

// httpError carries the status a request failure should be answered with.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

func respondError(e *core.RequestEvent, log *logrus.Entry, err error) error {
	var he *httpError
	if errors.As(err, &he) {
		return ErrorToast(e, he.status, he.message)
	}
	log.WithError(err).Error("request failed")
	return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func formBool(r *http.Request, key string, fallback bool) bool {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "on"
	}
	return b
}

// readUpload parses the multipart form, reads the sheet and settles the
// field mapping: posted profile, then the configured profile file, then
// header suggestions.
func readUpload(e *core.RequestEvent, cfg *config.Configuration) (*upload, error) {
	if err := e.Request.ParseMultipartForm(cfg.MaxUploadSize); err != nil {
		return nil, &httpError{http.StatusBadRequest, "File too large or invalid form data"}
	}

	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return nil, &httpError{http.StatusBadRequest, "Please select a file to upload"}
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, cfg.MaxUploadSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if int64(len(raw)) > cfg.MaxUploadSize {
		return nil, &httpError{http.StatusRequestEntityTooLarge, "File too large"}
	}

	headerRow := cfg.HeaderRowOffset
	if v := strings.TrimSpace(e.Request.FormValue("header_row")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &httpError{http.StatusBadRequest, "header_row must be a non-negative number"}
		}
		headerRow = n
	}

	sheet, err := services.ReadBOQSheet(bytes.NewReader(raw), header.Filename, headerRow)
	if err != nil {
		return nil, &httpError{http.StatusBadRequest, errors.Cause(err).Error()}
	}

	mapping, ignored, err := resolveMapping(e.Request.FormValue("mapping"), cfg.MappingFile, sheet.Headers)
	if err != nil {
		return nil, err
	}
	if missing := mapping.MissingColumns(sheet.Headers); len(missing) > 0 {
		return nil, &httpError{http.StatusBadRequest, fmt.Sprintf("Mapped columns not found in file: %s", strings.Join(missing, ", "))}
	}
	if !mapping.Has(services.FieldItemNumber) && !mapping.Has(services.FieldDescription) {
		return nil, &httpError{http.StatusBadRequest, "Could not find an item number or description column"}
	}

	return &upload{sheet: sheet, raw: raw, mapping: mapping, ignored: ignored}, nil
}

func resolveMapping(posted, profileFile string, headers []string) (services.FieldMapping, []string, error) {
	if strings.TrimSpace(posted) != "" {
		m, err := services.LoadMappingProfile(strings.NewReader(posted))
		if err != nil {
			return nil, nil, &httpError{http.StatusBadRequest, "Invalid mapping: " + err.Error()}
		}
		return m, nil, nil
	}
	if profileFile != "" {
		f, err := os.Open(profileFile)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open mapping profile %s", profileFile)
		}
		defer f.Close()
		m, err := services.LoadMappingProfile(f)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "load mapping profile %s", profileFile)
		}
		return m, nil, nil
	}
	m, ignored := services.SuggestFieldMapping(headers)
	return m, ignored, nil
}

// HandleBOQImport reads an uploaded sheet, builds the section/item hierarchy
// and, unless dry_run is set, commits it to the tender.
// Route: POST /tenders/{tenderId}/boq/import
func HandleBOQImport(app *pocketbase.PocketBase, cfg *config.Configuration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tenderID := e.Request.PathValue("tenderId")
		log := cfg.Logger().WithField("tender", tenderID)

		if _, err := app.FindRecordById("tenders", tenderID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Tender not found")
		}

		up, err := readUpload(e, cfg)
		if err != nil {
			return respondError(e, log, err)
		}

		h, err := services.NewImporter(nil, log).Build(services.ImportRequest{
			TenderID:            tenderID,
			Rows:                up.sheet.Rows,
			Mapping:             up.mapping,
			HeaderRowOffset:     up.sheet.HeaderRowOffset,
			SkipWarningRows:     formBool(e.Request, "skip_warnings", cfg.SkipWarningRows),
			DefaultSectionTitle: cfg.DefaultSectionTitle,
		})
		if err != nil {
			return respondError(e, log, err)
		}

		resp := ImportResponse{
			DryRun:   formBool(e.Request, "dry_run", false),
			FileName: up.sheet.FileName,
			Mapping:  up.mapping,
			Ignored:  up.ignored,
			Issues:   h.Issues,
			Result:   h.Result,
		}

		if !resp.DryRun {
			committed, err := services.CommitBOQ(app, tenderID, h, services.CommitOptions{
				ReplaceExisting: formBool(e.Request, "replace", cfg.ReplaceExisting),
				FileName:        up.sheet.FileName,
				OriginalFile:    up.raw,
				Logger:          log,
			})
			if err != nil {
				return respondError(e, log, err)
			}
			resp.ImportID = committed.ImportID
			SetToast(e, "success", fmt.Sprintf("Imported %d items into %d sections", h.Result.ItemsCreated, h.Result.SectionsCreated))
		}

		return e.JSON(http.StatusOK, resp)
	}
}

// HandleBOQValidationReport validates an uploaded sheet and downloads the
// issues as an Excel file.
// Route: POST /tenders/{tenderId}/boq/validate
func HandleBOQValidationReport(app *pocketbase.PocketBase, cfg *config.Configuration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tenderID := e.Request.PathValue("tenderId")
		log := cfg.Logger().WithField("tender", tenderID)

		if _, err := app.FindRecordById("tenders", tenderID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Tender not found")
		}

		up, err := readUpload(e, cfg)
		if err != nil {
			return respondError(e, log, err)
		}

		issues := services.ValidateBOQRows(up.sheet.Rows, up.mapping, up.sheet.HeaderRowOffset)
		xlsxBytes, err := services.GenerateValidationReport(issues)
		if err != nil {
			return respondError(e, log, err)
		}

		errorRows, warningRows := services.CountIssueRows(issues)
		e.Response.Header().Set("X-BOQ-Error-Rows", strconv.Itoa(errorRows))
		e.Response.Header().Set("X-BOQ-Warning-Rows", strconv.Itoa(warningRows))

		filename := fmt.Sprintf("BOQ_Issues_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}
