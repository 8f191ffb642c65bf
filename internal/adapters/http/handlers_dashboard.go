package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"dq/internal/adapters/http/perf"
	"dq/internal/application/listutil"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/outbox"
)

// listRow is one record on a dashboard list page.
type listRow struct {
	ID      string
	Cells   []string
	Actions []rowAction
}

type listPage struct {
	Title      string
	Name       string
	Columns    []string
	Rows       []listRow
	Pagination listutil.PaginationInfo
	Search     string
	CanEdit    bool
	Flash      string
	Error      string
}

type formPage struct {
	Title  string
	Name   string
	Action string
	Fields []formField
	Error  string
}

// registerDashboard mounts the list, form and delete pages under /dashboard/{name}.
func (s *adminResource[T]) registerDashboard(mux muxer, wrap wrapper) {
	base := "/dashboard/" + s.name
	mux.Handle("GET "+base, wrap(s.pageList))
	mux.Handle("POST "+base+"/{id}/delete", wrap(s.pageDelete))
	if s.save != nil {
		mux.Handle("GET "+base+"/new", wrap(s.pageNew))
		mux.Handle("POST "+base+"/new", wrap(s.pageSave))
		mux.Handle("GET "+base+"/{id}/edit", wrap(s.pageEdit))
		mux.Handle("POST "+base+"/{id}/edit", wrap(s.pageSave))
	}
}

func (s *adminResource[T]) pageList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := listutil.ParseListParams(q, s.filterKeys)
	if params.Limit == 0 {
		params.Limit = listutil.DefaultLimit
	}
	data := listPage{
		Title:   s.title,
		Name:    s.name,
		Columns: s.columns,
		Search:  params.SearchTerm,
		CanEdit: s.save != nil,
		Flash:   q.Get("msg"),
	}

	env, err := s.coll.GetAll(r.Context(), params)
	if err != nil {
		status, msg := errorStatus(err)
		data.Error = msg
		data.Pagination = listutil.NormalizePagination(nil, 0, params.Page, params.Limit)
		renderTemplate(w, r, status, "list.html", data)
		return
	}
	for _, rec := range env.Data {
		row := listRow{ID: s.id(rec), Cells: s.row(rec)}
		if s.actions != nil {
			row.Actions = s.actions(rec)
		}
		data.Rows = append(data.Rows, row)
	}
	if env.Pagination != nil {
		data.Pagination = *env.Pagination
	}
	renderTemplate(w, r, http.StatusOK, "list.html", data)
}

func (s *adminResource[T]) pageNew(w http.ResponseWriter, r *http.Request) {
	var zero T
	renderTemplate(w, r, http.StatusOK, "form.html", formPage{
		Title:  "New " + s.title,
		Name:   s.name,
		Action: "/dashboard/" + s.name + "/new",
		Fields: s.form(zero),
	})
}

func (s *adminResource[T]) pageEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	env, err := s.coll.GetByID(r.Context(), id)
	if err != nil {
		status, msg := errorStatus(err)
		renderError(w, r, status, msg)
		return
	}
	if env.Data == nil {
		renderError(w, r, http.StatusNotFound, orchestrators.ErrNotFound.Error())
		return
	}
	renderTemplate(w, r, http.StatusOK, "form.html", formPage{
		Title:  "Edit " + s.title,
		Name:   s.name,
		Action: "/dashboard/" + s.name + "/" + url.PathEscape(id) + "/edit",
		Fields: s.form(*env.Data),
	})
}

// pageSave handles both the new and edit forms. A rejected save re-renders the
// form with what was submitted.
func (s *adminResource[T]) pageSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := readFields(w, r)
	if err == nil {
		_, err = s.save(r.Context(), id, f)
	}
	if err == nil {
		http.Redirect(w, r, s.listURL("Saved"), http.StatusSeeOther)
		return
	}

	status, msg := errorStatus(err)
	var zero T
	fields := s.form(zero)
	if f != nil {
		fields = resubmitted(fields, f)
	}
	title, action := "New "+s.title, "/dashboard/"+s.name+"/new"
	if id != "" {
		title, action = "Edit "+s.title, "/dashboard/"+s.name+"/"+url.PathEscape(id)+"/edit"
	}
	renderTemplate(w, r, status, "form.html", formPage{Title: title, Name: s.name, Action: action, Fields: fields, Error: msg})
}

func (s *adminResource[T]) pageDelete(w http.ResponseWriter, r *http.Request) {
	res, err := s.coll.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		status, msg := errorStatus(err)
		renderError(w, r, status, msg)
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(s.cachePath)
	}
	http.Redirect(w, r, s.listURL(res.Message), http.StatusSeeOther)
}

func (s *adminResource[T]) listURL(msg string) string {
	u := "/dashboard/" + s.name
	if msg != "" {
		u += "?msg=" + url.QueryEscape(msg)
	}
	return u
}

// resubmitted copies submitted values back into the form definition.
func resubmitted(fields []formField, f *requestFields) []formField {
	out := make([]formField, len(fields))
	for i, fd := range fields {
		switch {
		case fd.Type == "file" || fd.Type == "files":
		case fd.Type == "checkbox":
			fd.Checked = f.boolean(fd.Name)
		case f.has(fd.Name):
			fd.Value = f.str(fd.Name)
		}
		out[i] = fd
	}
	return out
}

type dashboardHome struct {
	Flash        string
	OutboxCounts map[string]int
	Failed       []outboxView
	Perf         *perf.Snapshot
}

func (a *app) handleDashboardHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboardHome{Flash: r.URL.Query().Get("msg")}

	counts, err := a.Outbox.CountByStatus(ctx)
	if err != nil {
		slog.Warn("dashboard_outbox_counts_failed", "error", err)
	}
	data.OutboxCounts = counts
	failed, err := a.Outbox.ListByStatus(ctx, outbox.StatusFailed, listutil.DefaultLimit)
	if err != nil {
		slog.Warn("dashboard_outbox_list_failed", "error", err)
	}
	for _, e := range failed {
		data.Failed = append(data.Failed, newOutboxView(e))
	}
	if a.Collector != nil {
		snap := a.Collector.Snapshot(a.Now().Add(-15*time.Minute), 5)
		data.Perf = &snap
	}
	renderTemplate(w, r, http.StatusOK, "dashboard.html", data)
}

func (a *app) handleDashboardToggleHeroImage(w http.ResponseWriter, r *http.Request) {
	h, err := orchestrators.ExecuteToggleHeroImage(r.Context(), r.PathValue("id"), a.Services.HeroImages, a.content)
	if err != nil {
		status, msg := errorStatus(err)
		renderError(w, r, status, msg)
		return
	}
	msg := "Hero image hidden"
	if h.IsActive {
		msg = "Hero image shown"
	}
	http.Redirect(w, r, "/dashboard/hero-images?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (a *app) handleDashboardApplicationStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	upd := memberapplication.StatusUpdate{Status: r.PostFormValue("status"), PaymentStatus: r.PostFormValue("paymentStatus")}
	if _, err := orchestrators.ExecuteUpdateApplicationStatus(r.Context(), r.PathValue("id"), upd, a.Services.MemberApplications); err != nil {
		status, msg := errorStatus(err)
		renderError(w, r, status, msg)
		return
	}
	http.Redirect(w, r, "/dashboard/member-applications?msg="+url.QueryEscape("Application updated"), http.StatusSeeOther)
}

func (a *app) handleDashboardOutboxRetry(w http.ResponseWriter, r *http.Request) {
	msg := "Retry succeeded"
	if err := a.retryOutbox(r); err != nil {
		_, msg = outboxRetryStatus(err)
	}
	http.Redirect(w, r, "/dashboard?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}
