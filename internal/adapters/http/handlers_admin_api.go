package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dq/internal/adapters/backend"
	"dq/internal/application/listutil"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/outbox"
)

// registerAPI mounts GET/POST /api/admin/{name} and GET/PUT/DELETE
// /api/admin/{name}/{id}. Read-only collections get no POST or PUT.
func (s *adminResource[T]) registerAPI(mux muxer, wrap wrapper) {
	base := "/api/admin/" + s.name
	mux.Handle("GET "+base, wrap(s.apiList))
	mux.Handle("GET "+base+"/{id}", wrap(s.apiGet))
	mux.Handle("DELETE "+base+"/{id}", wrap(s.apiDelete))
	if s.save != nil {
		mux.Handle("POST "+base, wrap(s.apiCreate))
		mux.Handle("PUT "+base+"/{id}", wrap(s.apiUpdate))
	}
}

// apiList forwards page, limit, searchTerm and the collection's filters, and always
// answers with a populated pagination block.
func (s *adminResource[T]) apiList(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), s.filterKeys)
	env, err := s.coll.GetAll(r.Context(), params)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *adminResource[T]) apiGet(w http.ResponseWriter, r *http.Request) {
	env, err := s.coll.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if env.Data == nil {
		writeAPIError(w, orchestrators.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *adminResource[T]) apiCreate(w http.ResponseWriter, r *http.Request) {
	s.apiSave(w, r, "", http.StatusCreated)
}

func (s *adminResource[T]) apiUpdate(w http.ResponseWriter, r *http.Request) {
	s.apiSave(w, r, r.PathValue("id"), http.StatusOK)
}

func (s *adminResource[T]) apiSave(w http.ResponseWriter, r *http.Request, id string, status int) {
	f, err := readFields(w, r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	saved, err := s.save(r.Context(), id, f)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, status, backend.Envelope[T]{Success: true, Data: saved})
}

func (s *adminResource[T]) apiDelete(w http.ResponseWriter, r *http.Request) {
	res, err := s.coll.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(s.cachePath)
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *app) handleAPIToggleHeroImage(w http.ResponseWriter, r *http.Request) {
	h, err := orchestrators.ExecuteToggleHeroImage(r.Context(), r.PathValue("id"), a.Services.HeroImages, a.content)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h})
}

func (a *app) handleAPIApplicationStatus(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	upd := memberapplication.StatusUpdate{Status: f.str("status"), PaymentStatus: f.str("paymentStatus")}
	m, err := orchestrators.ExecuteUpdateApplicationStatus(r.Context(), r.PathValue("id"), upd, a.Services.MemberApplications)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: m})
}

// perfTopN is how many slow paths the perf view lists per category.
const perfTopN = 10

// handleAPIPerf returns timing aggregates for the last ?minutes= (default 15).
func (a *app) handleAPIPerf(w http.ResponseWriter, r *http.Request) {
	minutes := 15
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 && v <= 24*60 {
		minutes = v
	}
	if a.Collector == nil {
		writeFailure(w, http.StatusServiceUnavailable, "Performance collection is disabled")
		return
	}
	snap := a.Collector.Snapshot(a.Now().Add(-time.Duration(minutes)*time.Minute), perfTopN)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: snap})
}

// handleAPIFeeds lists the public feed caches and their last fetch outcome.
func (a *app) handleAPIFeeds(w http.ResponseWriter, r *http.Request) {
	states := a.Feeds.States()
	if states == nil {
		states = []FeedState{}
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: states})
}

// outboxView is the JSON shape of an outbox entry.
type outboxView struct {
	ID              string     `json:"id"`
	ActionType      string     `json:"actionType"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"maxAttempts"`
	LastAttemptedAt *time.Time `json:"lastAttemptedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

func newOutboxView(e outbox.Entry) outboxView {
	v := outboxView{
		ID: e.ID, ActionType: e.ActionType, Status: e.Status,
		Attempts: e.Attempts, MaxAttempts: e.MaxAttempts,
		CreatedAt: e.CreatedAt, ErrorMessage: e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		t := e.LastAttemptedAt
		v.LastAttemptedAt = &t
	}
	return v
}

// handleAPIOutbox lists outbox entries. ?status= filters (default failed,
// "all" for every status); ?limit= caps the list (default 50, max 100).
func (a *app) handleAPIOutbox(w http.ResponseWriter, r *http.Request) {
	entries, err := a.listOutbox(r)
	if err != nil {
		internalError(w, err)
		return
	}
	views := make([]outboxView, len(entries))
	for i, e := range entries {
		views[i] = newOutboxView(e)
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: views})
}

func (a *app) listOutbox(r *http.Request) ([]outbox.Entry, error) {
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= listutil.MaxLimit {
		limit = n
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = outbox.StatusFailed
	case "all":
		status = ""
	}
	return a.Outbox.ListByStatus(r.Context(), status, limit)
}

func (a *app) handleAPIOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if err := a.retryOutbox(r); err != nil {
		status, msg := outboxRetryStatus(err)
		writeFailure(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "retry succeeded"})
}

// retryOutbox replays one entry now. Failed entries are reopened first so an
// admin can retry past the attempt limit.
func (a *app) retryOutbox(r *http.Request) error {
	ctx := r.Context()
	id := r.PathValue("id")
	e, err := a.Outbox.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == outbox.StatusFailed {
		e.Status = outbox.StatusRetrying
		e.MaxAttempts = e.Attempts + 1
		if err := a.Outbox.Save(ctx, e); err != nil {
			return err
		}
	}
	return a.OutboxProcessor.ProcessSingle(ctx, id)
}

func outboxRetryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "Outbox entry not found"
	case errors.Is(err, orchestrators.ErrTerminalEntry):
		return http.StatusConflict, err.Error()
	}
	return http.StatusBadGateway, "Retry failed: " + err.Error()
}
