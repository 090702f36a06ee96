package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"tenderboq/collections"
	"tenderboq/config"
	"tenderboq/services"
)

type importOptions struct {
	File         string
	TenderID     string
	MappingFile  string
	HeaderRow    int
	SkipWarnings bool
	DryRun       bool
}

func newImportCommand(app *pocketbase.PocketBase, cfg *config.Configuration) *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "boq-import",
		Short: "Import a BoQ sheet into a tender",
		Long:  "Read a CSV or XLSX bill of quantities, build its section and item hierarchy and store it on a tender.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.IsBootstrapped() {
				if err := app.Bootstrap(); err != nil {
					return errors.Wrap(err, "bootstrap app")
				}
			}
			if err := collections.Setup(app); err != nil {
				return errors.Wrap(err, "setup collections")
			}
			return runImport(app, cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "Path to the .csv or .xlsx sheet (required)")
	cmd.Flags().StringVar(&opts.TenderID, "tender", "", "Tender ID (a new tender is created when empty)")
	cmd.Flags().StringVar(&opts.MappingFile, "mapping", "", "YAML mapping profile (defaults to BOQ_MAPPING_FILE, then header suggestions)")
	cmd.Flags().IntVar(&opts.HeaderRow, "header-row", cfg.HeaderRowOffset, "Zero-based index of the header row")
	cmd.Flags().BoolVar(&opts.SkipWarnings, "skip-warnings", cfg.SkipWarningRows, "Skip rows that only have validation warnings")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build and print the result without storing it")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	return cmd
}

// runImport reads opts.File, builds the hierarchy and writes the
// ImportResult to out as indented JSON.
func runImport(app core.App, cfg *config.Configuration, opts importOptions, out io.Writer) error {
	log := cfg.Logger().WithField("file", opts.File)

	raw, err := os.ReadFile(opts.File)
	if err != nil {
		return errors.Wrap(err, "read sheet")
	}
	sheet, err := services.ReadBOQSheet(bytes.NewReader(raw), filepath.Base(opts.File), opts.HeaderRow)
	if err != nil {
		return err
	}

	mapping, err := loadMapping(opts.MappingFile, cfg.MappingFile, sheet.Headers)
	if err != nil {
		return err
	}
	if missing := mapping.MissingColumns(sheet.Headers); len(missing) > 0 {
		return errors.Errorf("mapped columns not found in file: %s", strings.Join(missing, ", "))
	}

	tenderID := opts.TenderID
	if tenderID == "" && !opts.DryRun {
		tenderID, err = createTender(app, strings.TrimSuffix(sheet.FileName, filepath.Ext(sheet.FileName)))
		if err != nil {
			return err
		}
		log.WithField("tender", tenderID).Info("created tender")
	}

	h, err := services.NewImporter(nil, log).Build(services.ImportRequest{
		TenderID:            tenderID,
		Rows:                sheet.Rows,
		Mapping:             mapping,
		HeaderRowOffset:     sheet.HeaderRowOffset,
		SkipWarningRows:     opts.SkipWarnings,
		DefaultSectionTitle: cfg.DefaultSectionTitle,
	})
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if _, err := services.CommitBOQ(app, tenderID, h, services.CommitOptions{
			ReplaceExisting: cfg.ReplaceExisting,
			FileName:        sheet.FileName,
			OriginalFile:    raw,
			Logger:          log,
		}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(h.Result)
}

func loadMapping(flagFile, envFile string, headers []string) (services.FieldMapping, error) {
	path := flagFile
	if path == "" {
		path = envFile
	}
	if path == "" {
		m, _ := services.SuggestFieldMapping(headers)
		return m, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mapping profile")
	}
	defer f.Close()
	return services.LoadMappingProfile(f)
}

func createTender(app core.App, title string) (string, error) {
	col, err := app.FindCollectionByNameOrId("tenders")
	if err != nil {
		return "", errors.Wrap(err, "find tenders collection")
	}
	record := core.NewRecord(col)
	record.Set("title", title)
	if err := app.Save(record); err != nil {
		return "", errors.Wrap(err, "save tender")
	}
	return record.Id, nil
}
