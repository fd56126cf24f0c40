package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"botcheck/internal/model"
)

const (
	ReportTitle     = "Twitter Bot Detection Report"
	DefaultFilename = "Twitter_Bot_Report.pdf"
)

func buildPDF(metrics []model.Metric) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(ReportTitle, true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, ReportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	for _, m := range metrics {
		line := fmt.Sprintf("%s: %s", m.Name, model.FormatValue(m.Value))
		pdf.CellFormat(0, 10, tr(line), "", 1, "L", false, 0, "")
	}
	return pdf
}

// WritePDF renders the report title followed by one "Name: Value" line per
// metric.
func WritePDF(w io.Writer, metrics []model.Metric) error {
	pdf := buildPDF(metrics)
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// SavePDF writes the report to path, creating parent directories, and
// returns the path written. An empty path uses DefaultFilename in the working
// directory; a path without an extension gets ".pdf".
func SavePDF(path string, metrics []model.Metric) (string, error) {
	if path == "" {
		path = DefaultFilename
	}
	if filepath.Ext(path) == "" {
		path += ".pdf"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	pdf := buildPDF(metrics)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
