package panel

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/report"
	"github.com/UnknownOlympus/roster/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// export writes the rows of the list screen, search and sort applied, as an
// xlsx workbook.
func (p *Panel) export(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	back := listQuery(r)

	view, err := p.mountedView(r.Context(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			p.endSession(w, r)
			return
		}
		p.log.ErrorContext(r.Context(), "Failed to load employees for export", "error", err)
		errKey, detail := backendFlash(err, "flash.fetch_failed")
		redirect(w, r, "/dashboard/employees", withFlash(back, flashError, errKey, detail))
		return
	}
	applyListQuery(view, r.URL.Query())

	rows := view.Rows()
	if len(rows) == 0 {
		redirect(w, r, "/dashboard/employees", withFlash(back, flashError, "flash.export_empty", ""))
		return
	}

	start := time.Now()
	buf, err := report.GenerateExcelReport(report.RowsFromEmployees(rows))
	p.metrics.ReportGeneration.WithLabelValues("panel").Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.Actions.WithLabelValues("export", "failed").Inc()
		p.log.ErrorContext(r.Context(), "Failed to generate report", "error", err)
		redirect(w, r, "/dashboard/employees", withFlash(back, flashError, "flash.export_failed", ""))
		return
	}
	p.metrics.Actions.WithLabelValues("export", "ok").Inc()

	filename := "employees-" + p.now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
