package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/db"
	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/store"
	"github.com/birralog/enrich-cli/internal/textmatch"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import breweries from CSV",
	Long:  "Seeds the local catalogue from a CSV export (header: name,website,address,email,phone,fiscal_code). Existing records are never overwritten.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close()

		breweries, err := parseBreweryCSV(f)
		if err != nil {
			return err
		}

		var imported int64
		if pg, ok := st.(*store.PostgresStore); ok {
			imported, err = bulkImportPostgres(ctx, pg, breweries)
		} else {
			imported, err = importOneByOne(ctx, st, breweries)
		}
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int64("imported", imported),
			zap.Int("rows", len(breweries)),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

// parseBreweryCSV reads rows into brewery records. The header row is required
// and must start with "name"; remaining columns are optional.
func parseBreweryCSV(r io.Reader) ([]model.Brewery, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("csv has no data rows")
	}
	if records[0][0] != "name" {
		return nil, eris.Errorf("unexpected csv header %q, want name,website,address,email,phone,fiscal_code", records[0][0])
	}

	col := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	var out []model.Brewery
	for _, row := range records[1:] {
		name := col(row, 0)
		if name == "" {
			continue
		}
		out = append(out, model.Brewery{
			Name:       name,
			Website:    col(row, 1),
			Address:    col(row, 2),
			Email:      col(row, 3),
			Phone:      col(row, 4),
			FiscalCode: col(row, 5),
			Lifecycle: model.Lifecycle{
				DataSource:       "csv_import",
				ValidationStatus: model.ValidationPending,
			},
		})
	}
	return out, nil
}

// bulkImportPostgres loads all rows in one COPY-backed upsert. Conflicting
// names keep their existing data: an import must never degrade an already
// enriched record.
func bulkImportPostgres(ctx context.Context, pg *store.PostgresStore, breweries []model.Brewery) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(breweries))
	for i := range breweries {
		b := breweries[i]
		b.ID = uuid.NewString()
		b.CreatedAt = now
		b.UpdatedAt = now
		data, err := json.Marshal(b)
		if err != nil {
			return 0, eris.Wrapf(err, "marshal brewery %q", b.Name)
		}
		rows = append(rows, []any{
			b.ID, b.Name, textmatch.Normalize(b.Name), data, false, now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, pg.Pool(), db.UpsertConfig{
		Table:        "breweries",
		Columns:      []string{"id", "name", "name_norm", "data", "needs_manual_review", "created_at", "updated_at"},
		ConflictKeys: []string{"name_norm"},
		UpdateCols:   []string{"updated_at"},
	}, rows)
	return n, eris.Wrap(err, "bulk upsert breweries")
}

func importOneByOne(ctx context.Context, st store.Store, breweries []model.Brewery) (int64, error) {
	var imported int64
	for i := range breweries {
		existing, err := st.FindBreweryExact(ctx, breweries[i].Name)
		if err != nil {
			return imported, eris.Wrapf(err, "lookup %q", breweries[i].Name)
		}
		if existing != nil {
			continue
		}
		if err := st.CreateBrewery(ctx, &breweries[i]); err != nil {
			return imported, eris.Wrapf(err, "create %q", breweries[i].Name)
		}
		imported++
	}
	return imported, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
