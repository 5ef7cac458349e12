package handler

import (
	"fmt"
	"net/http"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/model"
	"textwatch/internal/repository"
	"time"

	"github.com/xuri/excelize/v2"
)

const transcriptSheet = "Transcript"

// TranscriptHeader is the first row of an exported transcript.
var TranscriptHeader = []string{"Time", "Session", "Text", "Raw text", "Emitted", "Regions", "Duration (ms)"}

var transcriptWidths = []float64{20, 38, 60, 60, 10, 10, 14}

// ExportLinesHandler streams the recorded passes as an XLSX transcript, oldest
// first. Query: session, emitted.
func ExportLinesHandler(logger *logger.Logger, passRepo repository.PassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &dto.PassFilter{
			SessionID: q.Get("session"),
			Emitted:   parseOptionalBool(q.Get("emitted")),
		}

		passes, err := passRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying passes for export: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		f, err := BuildTranscript(passes)
		if err != nil {
			logger.Error("Error building transcript: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		name := "transcript"
		if filter.SessionID != "" {
			name += "-" + filter.SessionID
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		if _, err := f.WriteTo(w); err != nil {
			logger.Error("Error writing transcript: %v", err)
		}
	}
}

// BuildTranscript lays passes out one per row, in chronological order. The
// repository returns newest first, so rows are written in reverse.
func BuildTranscript(passes []model.Pass) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(transcriptSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range TranscriptHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.SetCellValue(transcriptSheet, cell, header)
		f.SetCellStyle(transcriptSheet, cell, cell, headerStyle)

		name, _ := excelize.ColumnNumberToName(col + 1)
		f.SetColWidth(transcriptSheet, name, name, transcriptWidths[col])
	}

	row := 2
	for i := len(passes) - 1; i >= 0; i-- {
		p := passes[i]
		values := []interface{}{
			p.Timestamp.Local().Format(time.DateTime),
			p.SessionID,
			p.Text,
			p.RawText,
			p.Emitted,
			p.RegionCount,
			p.DurationMs,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(transcriptSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	return f, nil
}
