package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/store"
)

// Importer writes parsed venue records into the store.
type Importer struct {
	store store.Store
}

// NewImporter creates an Importer on top of the given store.
func NewImporter(s store.Store) *Importer {
	return &Importer{store: s}
}

// Summary reports what an import run did.
type Summary struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportFile parses the file by extension (.csv or .xlsx) and imports every
// valid record. Rows that fail to parse or insert are counted and reported,
// not fatal.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	var records []*VenueRecord
	var rowErrs []error
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, rowErrs, err = readCSVFile(path)
	case ".xlsx":
		records, rowErrs, err = ReadXLSX(path, XLSXOptions{})
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	summary := im.Import(ctx, records, filepath.Base(path))
	summary.Skipped += len(rowErrs)
	summary.Errors = append(rowErrs, summary.Errors...)
	return summary, nil
}

// Import inserts the records and logs one import activity per venue.
func (im *Importer) Import(ctx context.Context, records []*VenueRecord, source string) *Summary {
	summary := &Summary{}
	for _, rec := range records {
		venue := rec.ToVenue()
		if err := im.store.CreateVenue(ctx, venue); err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, eris.Wrapf(err, "ingest: insert %q", rec.Name))
			continue
		}
		if err := im.store.AppendActivity(ctx, &model.Activity{
			VenueID:     venue.ID,
			Type:        model.ActivityTypeImport,
			Description: fmt.Sprintf("Imported from %s", source),
		}); err != nil {
			zap.L().Warn("import activity not recorded",
				zap.String("venue_id", venue.ID), zap.Error(err))
		}
		summary.Imported++
	}

	zap.L().Info("import finished",
		zap.String("source", source),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped))
	return summary
}
