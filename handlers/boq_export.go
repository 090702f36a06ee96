package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tenderboq/config"
	"tenderboq/services"
)

// buildExportData loads a tender's stored hierarchy as ExportData.
func buildExportData(app core.App, tenderID string) (services.ExportData, error) {
	boq, err := services.LoadTenderBOQ(app, tenderID)
	if err != nil {
		return services.ExportData{}, err
	}

	createdDate := "—"
	if dt := boq.Tender.GetDateTime("created"); !dt.IsZero() {
		createdDate = dt.Time().Format("02 Jan 2006")
	}

	return services.BuildExportData(
		boq.Tender.GetString("title"),
		boq.Tender.GetString("reference_number"),
		createdDate,
		boq.Sections,
		boq.Items,
	), nil
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// HandleBOQExportExcel returns a handler that downloads a tender's BoQ as Excel.
// Route: GET /tenders/{tenderId}/boq/export/excel
func HandleBOQExportExcel(app *pocketbase.PocketBase, cfg *config.Configuration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tenderID := e.Request.PathValue("tenderId")
		log := cfg.Logger().WithField("tender", tenderID)

		data, err := buildExportData(app, tenderID)
		if err != nil {
			if errors.Is(err, services.ErrTenderNotFound) {
				return ErrorToast(e, http.StatusNotFound, "Tender not found")
			}
			return respondError(e, log, err)
		}

		xlsxBytes, err := services.GenerateBOQExcel(data)
		if err != nil {
			log.WithError(err).Error("export_excel: failed to generate")
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("BOQ_%s_%d.xlsx", sanitizeFilename(data.Title), time.Now().Year())

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleImportSummaryPDF returns a handler that downloads the summary of one
// import run as PDF.
// Route: GET /tenders/{tenderId}/boq/imports/{importId}/summary.pdf
func HandleImportSummaryPDF(app *pocketbase.PocketBase, cfg *config.Configuration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tenderID := e.Request.PathValue("tenderId")
		importID := e.Request.PathValue("importId")
		log := cfg.Logger().WithField("tender", tenderID)

		summary, err := services.LoadImportSummary(app, tenderID, importID)
		if err != nil {
			log.WithError(err).Info("export_pdf: import not found")
			return ErrorToast(e, http.StatusNotFound, "Import not found")
		}

		pdfBytes, err := services.GenerateImportSummaryPDF(*summary)
		if err != nil {
			log.WithError(err).Error("export_pdf: failed to generate")
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate PDF file")
		}

		filename := fmt.Sprintf("BOQ_Import_%s_%s.pdf", sanitizeFilename(summary.Title), importID)

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}
