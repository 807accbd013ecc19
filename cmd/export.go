package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
)

var (
	exportPath  string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export breweries flagged for manual review to XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		flagged, err := st.ListBreweriesNeedingReview(ctx, exportLimit)
		if err != nil {
			return eris.Wrap(err, "list breweries needing review")
		}

		if err := writeReviewWorkbook(exportPath, flagged); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.Int("breweries", len(flagged)),
			zap.String("file", exportPath),
		)
		return nil
	},
}

func writeReviewWorkbook(path string, breweries []model.Brewery) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Needs Review")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Name", "Website", "Address", "Email", "Phone", "Fiscal Code", "Confidence", "Reason"} {
		header.AddCell().Value = h
	}

	for _, b := range breweries {
		row := sheet.AddRow()
		row.AddCell().Value = b.Name
		row.AddCell().Value = b.Website
		row.AddCell().Value = b.Address
		row.AddCell().Value = b.Email
		row.AddCell().Value = b.Phone
		row.AddCell().Value = b.FiscalCode
		row.AddCell().Value = strconv.FormatFloat(b.Confidence, 'f', 2, 64)
		row.AddCell().Value = b.ReviewReason
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportPath, "out", "needs-review.xlsx", "output XLSX path")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 500, "maximum breweries to export")
	rootCmd.AddCommand(exportCmd)
}
