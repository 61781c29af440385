package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/darksworm/backoffice/pkg/engine"
	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/model"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// FormatForPath picks the format from a file extension, defaulting to CSV.
func FormatForPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportJSON
	}
	return ExportCSV
}

// Preview returns the row as indented JSON.
func (c *Controller) Preview(row model.Row) (string, error) {
	if !c.CanPreview() {
		return "", apperrors.New(apperrors.ErrorPermission, "PREVIEW_DENIED", "Preview is not allowed for this table")
	}
	data, err := json.Marshal(row)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrorInternal, "PREVIEW_ENCODE", "Failed to encode row")
	}
	return gjson.GetBytes(data, "@pretty").String(), nil
}

// Export writes the filtered rows (all pages) with the visible columns.
// Returns the number of rows written.
func (c *Controller) Export(w io.Writer, format ExportFormat) (int, error) {
	if !c.CanDownload() {
		return 0, apperrors.New(apperrors.ErrorPermission, "EXPORT_DENIED", "Export is not allowed for this table")
	}
	rows := c.Filtered()
	visible := c.VisibleColumns()

	switch format {
	case ExportJSON:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			rec := make(map[string]any, len(visible)+1)
			if id := r.ID(); id != nil {
				rec[model.IDField] = id
			}
			for _, col := range visible {
				rec[col.Key] = r[col.Key]
			}
			out = append(out, rec)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrorInternal, "EXPORT_ENCODE", "Failed to encode rows")
		}
		if _, err := w.Write([]byte(gjson.GetBytes(data, "@pretty").String())); err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrorStorage, "EXPORT_WRITE", "Failed to write export")
		}
	case ExportCSV:
		cw := csv.NewWriter(w)
		header := make([]string, len(visible))
		for i, col := range visible {
			header[i] = col.Title()
		}
		if err := cw.Write(header); err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrorStorage, "EXPORT_WRITE", "Failed to write export")
		}
		for _, r := range rows {
			rec := make([]string, len(visible))
			for i, col := range visible {
				rec[i] = exportCell(r[col.Key])
			}
			if err := cw.Write(rec); err != nil {
				return 0, apperrors.Wrap(err, apperrors.ErrorStorage, "EXPORT_WRITE", "Failed to write export")
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrorStorage, "EXPORT_WRITE", "Failed to write export")
		}
	default:
		return 0, apperrors.ValidationError("EXPORT_FORMAT", fmt.Sprintf("unknown export format %q", format))
	}
	return len(rows), nil
}

func exportCell(v any) string {
	if list, ok := engine.AsList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = engine.Stringify(item)
		}
		return strings.Join(parts, "; ")
	}
	return engine.Stringify(v)
}
