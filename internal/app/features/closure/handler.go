// internal/app/features/closure/handler.go
package closure

import (
	"net/http"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/app/system/xlsxexport"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves end-of-day closure and its history.
type Handler struct {
	Desk     *desk.Controller
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(d *desk.Controller, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Desk:     d,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

type historyRow struct {
	Date      string                `json:"date"`
	Timestamp time.Time             `json:"timestamp"`
	Summary   models.ClosureSummary `json:"summary"`
}

type historyVM struct {
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Closures []historyRow `json:"closures"`
}

// HandleClose handles POST /closure.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "close day")
	defer cancel()

	res, err := h.Desk.Close(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "closure: close day", err)
		return
	}
	h.AuditLog.DayClosed(ctx, r, res.Record.Date, len(res.Record.Rooms), res.ArchivedAt)
	uierrors.WriteJSON(w, http.StatusOK, res)
}

// ServeStatus handles GET /closure/status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "closure status")
	defer cancel()

	status, err := h.Desk.Status(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "closure: status", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, status)
}

// ServeHistory handles GET /closure/history?start=&end=. Missing bounds
// default to the last DefaultHistoryDays days.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	start, end := h.Desk.DefaultHistoryRange()
	if v := query.Get(r, "start"); v != "" {
		start = v
	}
	if v := query.Get(r, "end"); v != "" {
		end = v
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "closure history")
	defer cancel()

	records, err := h.Desk.History(ctx, start, end)
	if err != nil {
		h.ErrLog.Respond(w, r, "closure: history", err)
		return
	}

	rows := make([]historyRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, historyRow{Date: rec.Date, Timestamp: rec.Timestamp, Summary: rec.Summary()})
	}
	uierrors.WriteJSON(w, http.StatusOK, historyVM{Start: start, End: end, Closures: rows})
}

// ServeClosure handles GET /closure/{date}: the full snapshot.
func (h *Handler) ServeClosure(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	models.SortRooms(rec.Rooms)
	uierrors.WriteJSON(w, http.StatusOK, struct {
		models.ClosureRecord
		Summary models.ClosureSummary `json:"summary"`
	}{rec, rec.Summary()})
}

// ServeExportCSV handles GET /closure/{date}/export.csv.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	models.SortRooms(rec.Rooms)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvutil.ExportFilename(rec.Date)+`"`)
	if err := csvutil.WriteRooms(w, rec.Rooms); err != nil {
		h.Log.Warn("closure export write failed", zap.String("date", rec.Date), zap.Error(err))
	}
}

// ServeExportXLSX handles GET /closure/{date}/export.xlsx.
func (h *Handler) ServeExportXLSX(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	models.SortRooms(rec.Rooms)

	data, err := xlsxexport.RoomsWorkbook(rec.Date, rec.Rooms)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "closure: build workbook", err, "Could not build the spreadsheet.")
		return
	}
	w.Header().Set("Content-Type", xlsxexport.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+xlsxexport.Filename(rec.Date)+`"`)
	_, _ = w.Write(data)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (models.ClosureRecord, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "load closure")
	defer cancel()

	rec, err := h.Desk.Closure(ctx, chi.URLParam(r, "date"))
	if err != nil {
		h.ErrLog.Respond(w, r, "closure: load", err)
		return models.ClosureRecord{}, false
	}
	return rec, true
}
