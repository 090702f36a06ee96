package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"

	"tenderboq/collections"
	"tenderboq/config"
	"tenderboq/handlers"
)

func main() {
	cfg, err := config.Load(config.DefaultEnvFiles)
	if err != nil {
		log.Fatal(err)
	}
	logrus.SetLevel(cfg.LogrusLogLevel())
	logger := cfg.Logger().WithField("component", "server")

	app := pocketbase.New()
	app.RootCmd.AddCommand(newImportCommand(app, cfg))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := collections.Setup(app); err != nil {
			return err
		}
		if err := collections.Seed(app, logger); err != nil {
			logger.WithError(err).Warn("seed data failed")
		}
		if err := collections.MigrateSectionlessItems(app, cfg.DefaultSectionTitle); err != nil {
			logger.WithError(err).Warn("section migration failed")
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.BindFunc(handlers.RequestLogMiddleware(cfg.Logger().WithField("component", "http")))

		// ── BOQ import ───────────────────────────────────────────
		se.Router.POST("/tenders/{tenderId}/boq/import", handlers.HandleBOQImport(app, cfg))
		se.Router.POST("/tenders/{tenderId}/boq/validate", handlers.HandleBOQValidationReport(app, cfg))

		// ── BOQ export ───────────────────────────────────────────
		se.Router.GET("/tenders/{tenderId}/boq/export/excel", handlers.HandleBOQExportExcel(app, cfg))
		se.Router.GET("/tenders/{tenderId}/boq/imports/{importId}/summary.pdf", handlers.HandleImportSummaryPDF(app, cfg))

		se.Router.GET("/healthz", func(e *core.RequestEvent) error {
			return e.String(http.StatusOK, "ok")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
