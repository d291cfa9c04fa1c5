package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"

	"github.com/yutonagata/shipsnap-backend/internal/records"
)

// Formats supported by the exporter.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeader uses the Japanese column names the spreadsheet consumers expect.
var csvHeader = []string{"ID", "保存日時", "発送日", "伝票番号", "メモ"}

// utf8BOM keeps Excel from mangling Japanese text in exported CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is one rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// jsonExport is the portable JSON envelope.
type jsonExport struct {
	ExportDate  string             `json:"exportDate"`
	RecordCount int                `json:"recordCount"`
	Records     []jsonExportRecord `json:"records"`
}

type jsonExportRecord struct {
	ID                string `json:"id"`
	CreatedAt         string `json:"createdAt"`
	ShipDate          string `json:"shipDate"`
	TrackingNumber    string `json:"trackingNumber"`
	Note              string `json:"note"`
	ImagePreviewOrURL string `json:"imagePreviewOrUrl"`
}

// Service renders the full record set into portable files.
type Service interface {
	Export(format string, rows []records.RecordDTO, now time.Time) (*File, error)
}

type service struct{}

// NewService constructs the export service.
func NewService() Service {
	return &service{}
}

// Export renders the rows in the requested format.
func (s *service) Export(format string, rows []records.RecordDTO, now time.Time) (*File, error) {
	switch format {
	case FormatJSON:
		return s.exportJSON(rows, now)
	case FormatCSV:
		return s.exportCSV(rows, now)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *service) exportJSON(rows []records.RecordDTO, now time.Time) (*File, error) {
	out := jsonExport{
		ExportDate:  now.Format(time.RFC3339),
		RecordCount: len(rows),
		Records:     make([]jsonExportRecord, 0, len(rows)),
	}
	for i := range rows {
		out.Records = append(out.Records, jsonExportRecord{
			ID:                rows[i].ID.String(),
			CreatedAt:         rows[i].CreatedAt.Format(time.RFC3339),
			ShipDate:          rows[i].ShipDate,
			TrackingNumber:    rows[i].TrackingNumber,
			Note:              rows[i].Note,
			ImagePreviewOrURL: displayReference(rows[i]),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to render json export")
	}
	return &File{
		Name:        fileName(FormatJSON, now),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func (s *service) exportCSV(rows []records.RecordDTO, now time.Time) (*File, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to render csv export")
	}
	for i := range rows {
		row := []string{
			rows[i].ID.String(),
			rows[i].CreatedAt.Format(time.RFC3339),
			rows[i].ShipDate,
			rows[i].TrackingNumber,
			rows[i].Note,
		}
		if err := writer.Write(row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to render csv export")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to render csv export")
	}

	return &File{
		Name:        fileName(FormatCSV, now),
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

// displayReference picks what the export embeds for a record's image: the
// synced remote URL when present, else the local preview reference.
func displayReference(row records.RecordDTO) string {
	for _, img := range row.Images {
		if img.RemoteURL != nil && *img.RemoteURL != "" {
			return *img.RemoteURL
		}
	}
	for _, img := range row.Images {
		if img.PreviewData != nil && *img.PreviewData != "" {
			return *img.PreviewData
		}
	}
	return ""
}

func fileName(format string, now time.Time) string {
	return fmt.Sprintf("shipping-records_%s.%s", now.Format("20060102-150405"), format)
}
