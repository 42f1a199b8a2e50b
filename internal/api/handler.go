package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hifztracker/internal/apperr"
	"hifztracker/internal/export"
	"hifztracker/internal/logbook"
	"hifztracker/internal/logger"
	"hifztracker/internal/metrics"
	"hifztracker/internal/roster"
)

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) bool

// Handler serves the tracker's HTTP API.
type Handler struct {
	students *roster.Repository
	logs     *logbook.Repository
	exports  *export.Service
	log      *logger.Logger
	checks   map[string]HealthCheck
	now      func() time.Time
}

// New creates a handler. checks are reported by /healthz under their keys.
func New(students *roster.Repository, logs *logbook.Repository, exports *export.Service, log *logger.Logger, checks map[string]HealthCheck) *Handler {
	return &Handler{students: students, logs: logs, exports: exports, log: log, checks: checks, now: time.Now}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- Students ----------

type addStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation(err.Error()))
		return
	}
	st, created, err := h.students.AddStudent(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		metrics.StudentsAdded.Inc()
		h.log.Info("student added", "student_id", st.ID)
	}
	c.JSON(status, st)
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.students.ListStudents(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, apperr.Validation("invalid student id",
			apperr.Problem{Row: -1, Field: "id", Message: "must be a positive integer"}))
		return
	}
	ctx := c.Request.Context()
	st, err := h.students.GetStudent(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	if err := h.students.DeleteStudent(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("student deleted", "student_id", id, "name", st.Name)
	c.Status(http.StatusNoContent)
}

// ---------- Daily logs ----------

type sheetRow struct {
	Student string `json:"student"`
	logbook.Row
}

// Sheet returns the editing grid for a date: one blank row per student while
// the date is open, or the stored logs once it is closed.
func (h *Handler) Sheet(c *gin.Context) {
	ctx := c.Request.Context()
	logDate := c.Param("date")
	closed, err := h.logs.DateClosed(ctx, logDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if closed {
		entries, err := h.logs.GetLogsForDate(ctx, logDate)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"log_date": logDate, "closed": true, "logs": entries})
		return
	}
	students, err := h.students.ListStudents(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	rows := make([]sheetRow, 0, len(students))
	for _, st := range students {
		rows = append(rows, sheetRow{
			Student: st.Name,
			Row: logbook.Row{
				StudentID: st.ID,
				Surah:     logbook.Surahs()[0],
				StartAyah: 1,
				EndAyah:   1,
				PassFail:  logbook.Pass,
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"log_date": logDate, "closed": false, "rows": rows, "surahs": logbook.Surahs()})
}

type submitRequest struct {
	Rows []logbook.Row `json:"rows" binding:"required"`
}

func (h *Handler) SubmitLogs(c *gin.Context) {
	logDate := c.Param("date")
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation(err.Error()))
		return
	}
	n, err := h.logs.SubmitDailyBatch(c.Request.Context(), logDate, req.Rows)
	if err != nil {
		outcome := string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		metrics.BatchesSubmitted.WithLabelValues(outcome).Inc()
		h.respondError(c, err)
		return
	}
	metrics.BatchesSubmitted.WithLabelValues("ok").Inc()
	metrics.LogRowsWritten.Add(float64(n))
	h.log.Info("daily batch submitted", "log_date", logDate, "rows", n)
	c.JSON(http.StatusCreated, gin.H{"log_date": logDate, "inserted": n})
}

func (h *Handler) GetLogsForDate(c *gin.Context) {
	entries, err := h.logs.GetLogsForDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_date": c.Param("date"), "logs": entries})
}

// rangeParams reads from/to, defaulting to the current month when both are
// absent.
func (h *Handler) rangeParams(c *gin.Context) (string, string) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return logbook.DefaultRange(h.now())
	}
	return from, to
}

func (h *Handler) ListLogs(c *gin.Context) {
	from, to := h.rangeParams(c)
	entries, err := h.logs.GetLogsByDateRange(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "logs": entries})
}

// ExportCSV streams a range as CSV in one request.
func (h *Handler) ExportCSV(c *gin.Context) {
	from, to := h.rangeParams(c)
	entries, err := h.logs.GetLogsByDateRange(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := logbook.WriteCSV(&buf, entries); err != nil {
		h.respondError(c, err)
		return
	}
	sendCSV(c, logbook.ExportFilename(from, to), buf.Bytes())
}

// ---------- Background exports ----------

type prepareExportRequest struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

func (h *Handler) PrepareExport(c *gin.Context) {
	var req prepareExportRequest
	// the range is optional; an absent or empty body selects the default
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.respondError(c, apperr.Validation(err.Error()))
			return
		}
	}
	job, err := h.exports.Prepare(c.Request.Context(), req.Start, req.End)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("export queued", "job_id", job.ID, "start", job.Start, "end", job.End)
	c.JSON(http.StatusAccepted, job)
}

func (h *Handler) GetExport(c *gin.Context) {
	job, err := h.exports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) DownloadExport(c *gin.Context) {
	job, data, err := h.exports.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, export.ErrNotReady) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": job.Status})
			return
		}
		h.respondError(c, err)
		return
	}
	sendCSV(c, job.Filename, data)
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// respondError writes err as JSON. Unclassified errors are logged and
// reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, export.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error(), "kind": apperr.KindOf(err)}
	if problems := apperr.ProblemsOf(err); len(problems) > 0 {
		body["problems"] = problems
	}
	c.JSON(status, body)
}
