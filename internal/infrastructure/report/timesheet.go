// Package report reads and writes the spreadsheets exchanged with the
// clinic office: the per-employee timesheet and the staff roster import.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/espacohidro/pontocerto/internal/application/query"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// XLSXContentType is the MIME type of an Office Open XML workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetLogs    = "Registros"
	sheetSummary = "Resumo Diário"

	statusEdited   = "Sim (Ajustado)"
	statusOriginal = "Original"
	totalLabel     = "Total de Horas Trabalhadas"
	footnote       = "*Cálculo baseado apenas em ciclos fechados de Entrada/Saída descontando almoço quando registrado."
)

var (
	logHeader     = []any{"Data", "Horário", "Tipo de Registro", "Status", "Observações"}
	summaryHeader = []any{"Data", "Entrada", "Saída Almoço", "Volta Almoço", "Saída", "Horas", "Entrada (desvio)", "Saída (desvio)"}
)

// XLSXRenderer writes timesheets as Excel workbooks.
type XLSXRenderer struct{}

// NewXLSXRenderer creates a new XLSXRenderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

var _ query.TimesheetRenderer = (*XLSXRenderer)(nil)

// ContentType implements query.TimesheetRenderer.
func (r *XLSXRenderer) ContentType() string {
	return XLSXContentType
}

// FileName returns Relatorio_{name}_{yyyy-mm-dd}.xlsx, spaces replaced by
// underscores.
func (r *XLSXRenderer) FileName(ts *query.Timesheet) string {
	name := strings.Join(strings.Fields(ts.User.Name), "_")
	if name == "" {
		name = ts.User.ID
	}
	return fmt.Sprintf("Relatorio_%s_%s.xlsx", name, timeutil.DayKey(ts.IssuedAt, ts.Location))
}

// Render writes the workbook to w.
func (r *XLSXRenderer) Render(ts *query.Timesheet, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetLogs); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := writeLogSheet(f, ts, st); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("report: add sheet: %w", err)
	}
	if err := writeSummarySheet(f, ts, st); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

type styles struct {
	title  int
	label  int
	header int
	total  int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "0EA5E9"},
	}); err != nil {
		return s, fmt.Errorf("report: style: %w", err)
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return s, fmt.Errorf("report: style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0EA5E9"}},
	}); err != nil {
		return s, fmt.Errorf("report: style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "0F172A"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F1F5F9"}},
	}); err != nil {
		return s, fmt.Errorf("report: style: %w", err)
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SHEET 1: PUNCHES
// ══════════════════════════════════════════════════════════════════════════════

func writeLogSheet(f *excelize.File, ts *query.Timesheet, st styles) error {
	sw := sheetWriter{f: f, sheet: sheetLogs}
	position := ts.User.Position
	if position == "" {
		position = "N/A"
	}
	cfg := ts.Settings

	sw.row(1, "PontoCerto")
	sw.style("A1", "A1", st.title)
	sw.row(2, "Relatório de Frequência Individual")
	sw.row(4, "Funcionário:", ts.User.Name, "", "Email:", ts.User.Email)
	sw.row(5, "Cargo:", position, "", "Emissão:", timeutil.FormatBR(ts.IssuedAt, timeutil.FormatBRDate, ts.Location))
	sw.style("A4", "A5", st.label)
	sw.style("D4", "D5", st.label)
	sw.row(6, fmt.Sprintf("Expediente Padrão: %s às %s | Almoço: %s-%s", cfg.WorkStart, cfg.WorkEnd, cfg.LunchStart, cfg.LunchEnd))

	const tableStart = 8
	sw.row(tableStart, logHeader...)
	sw.style("A8", "E8", st.header)

	line := tableStart + 1
	for _, l := range ts.Logs {
		sw.row(line,
			timeutil.FormatBR(l.Timestamp, timeutil.FormatBRDate, ts.Location),
			timeutil.FormatBR(l.Timestamp, timeutil.FormatBRTime, ts.Location),
			l.Type.ReportLabel(),
			editedLabel(l),
			observations(l),
		)
		line++
	}

	line++
	sw.row(line, totalLabel, "", "", "", ts.Hours.TotalFormatted)
	sw.style(cell(1, line), cell(5, line), st.total)
	sw.row(line+2, footnote)

	sw.widths(map[string]float64{"A": 16, "B": 30, "C": 20, "D": 18, "E": 48})
	return sw.err
}

func editedLabel(l attendance.TimeLog) string {
	if l.Edited {
		return statusEdited
	}
	return statusOriginal
}

// observations joins the notes with the punch coordinates.
func observations(l attendance.TimeLog) string {
	notes := strings.TrimSpace(l.Notes)
	if l.Location != nil {
		geo := "Coord: " + l.Location.Coordinates()
		if notes == "" {
			notes = geo
		} else {
			notes = fmt.Sprintf("%s (%s)", notes, geo)
		}
	}
	if notes == "" {
		return "-"
	}
	return notes
}

// ══════════════════════════════════════════════════════════════════════════════
// SHEET 2: DAILY SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

func writeSummarySheet(f *excelize.File, ts *query.Timesheet, st styles) error {
	sw := sheetWriter{f: f, sheet: sheetSummary}
	sw.row(1, summaryHeader...)
	sw.style("A1", "H1", st.header)

	line := 2
	for i := range ts.Hours.Days {
		d := &ts.Hours.Days[i]
		day := d.Day
		if parsed, err := timeutil.ParseDay(d.Day, ts.Location); err == nil {
			day = timeutil.FormatBR(parsed, timeutil.FormatBRDate, ts.Location)
		}
		worked := "-"
		if d.Complete() {
			worked = attendance.FormatHours(d.Worked)
		}
		sw.row(line,
			day,
			clockOf(d.Entry, ts),
			clockOf(d.LunchStart, ts),
			clockOf(d.LunchEnd, ts),
			clockOf(d.Exit, ts),
			worked,
			deviationLabel(d.EntryDeviation),
			deviationLabel(d.ExitDeviation),
		)
		line++
	}
	sw.row(line+1, totalLabel, "", "", "", "", ts.Hours.TotalFormatted)
	sw.style(cell(1, line+1), cell(8, line+1), st.total)

	sw.widths(map[string]float64{"A": 14, "B": 12, "C": 14, "D": 14, "E": 12, "F": 12, "G": 16, "H": 16})
	return sw.err
}

func clockOf(t *time.Time, ts *query.Timesheet) string {
	if t == nil {
		return "-"
	}
	return timeutil.FormatBR(*t, timeutil.FormatClock, ts.Location)
}

func deviationLabel(d *attendance.Deviation) string {
	if d == nil {
		return ""
	}
	return d.Label
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (w *sheetWriter) row(line int, values ...any) {
	if w.err != nil {
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell(1, line), &values); err != nil {
		w.err = fmt.Errorf("report: %s row %d: %w", w.sheet, line, err)
	}
}

func (w *sheetWriter) style(from, to string, id int) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellStyle(w.sheet, from, to, id); err != nil {
		w.err = fmt.Errorf("report: %s style: %w", w.sheet, err)
	}
}

func (w *sheetWriter) widths(cols map[string]float64) {
	for col, width := range cols {
		if w.err != nil {
			return
		}
		if err := w.f.SetColWidth(w.sheet, col, col, width); err != nil {
			w.err = fmt.Errorf("report: %s width: %w", w.sheet, err)
		}
	}
}
