package web

import (
	"context"
	"net/http"

	"dq/internal/adapters/backend"
	"dq/internal/application/contentstate"
	"dq/internal/application/listutil"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/notice"
)

// serveFeed answers from a cached container. A failed refresh serves the last
// good items; only a feed with nothing cached reports the error.
func serveFeed[T any](w http.ResponseWriter, r *http.Request, c *contentstate.Container[T], filter func([]T) []T) {
	snap := c.Get(r.Context())
	if snap.Err != nil && len(snap.Items) == 0 {
		writeAPIError(w, snap.Err)
		return
	}
	items := snap.Items
	if filter != nil {
		items = filter(items)
	}
	page, info := pageOf(items, listutil.ParseListParams(r.URL.Query(), nil))
	writeJSON(w, http.StatusOK, backend.Envelope[[]T]{Success: true, Data: page, Pagination: &info})
}

// pageOf slices a cached list. Without a limit the whole list is one page.
func pageOf[T any](items []T, p listutil.ListParams) ([]T, listutil.PaginationInfo) {
	total := len(items)
	page := items
	if p.Limit > 0 {
		start := (max(p.Page, 1) - 1) * p.Limit
		end := min(start+p.Limit, total)
		if start >= total {
			page = []T{}
		} else {
			page = items[start:end]
		}
	}
	if page == nil {
		page = []T{}
	}
	info := listutil.NormalizePagination(&listutil.RawPagination{TotalItems: &total}, len(page), p.Page, p.Limit)
	return page, info
}

func (a *app) feeds(ctx context.Context) *FeedSet {
	return a.Feeds.For(backend.LanguageFrom(ctx))
}

func (a *app) handlePublicActivities(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, a.feeds(r.Context()).Activities, nil)
}

func (a *app) handlePublicBlogs(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, a.feeds(r.Context()).Blogs, nil)
}

func (a *app) handlePublicNotices(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, a.feeds(r.Context()).Notices, nil)
}

func (a *app) handlePublicGallery(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, a.feeds(r.Context()).Gallery, nil)
}

// handlePublicHeroImages lists active slides in display order.
func (a *app) handlePublicHeroImages(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, a.feeds(r.Context()).HeroImages, heroimage.ActiveInOrder)
}

func (a *app) handlePublicPrograms(w http.ResponseWriter, r *http.Request) {
	env, err := a.Services.Programs.GetAll(r.Context(), listutil.ParseListParams(r.URL.Query(), []string{"tag"}))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (a *app) handlePublicProgram(w http.ResponseWriter, r *http.Request) {
	env, err := a.Services.Programs.GetBySlug(r.Context(), r.PathValue("slug"))
	writeItem(w, env, err)
}

func (a *app) handlePublicCategories(w http.ResponseWriter, r *http.Request) {
	env, err := a.Services.DonationCategories.GetAll(r.Context(), listutil.ParseListParams(r.URL.Query(), nil))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (a *app) handlePublicCategory(w http.ResponseWriter, r *http.Request) {
	env, err := a.Services.DonationCategories.GetBySlug(r.Context(), r.PathValue("slug"))
	writeItem(w, env, err)
}

// noticeDetail adds the rendered Markdown body.
type noticeDetail struct {
	notice.Notice
	HTML string `json:"html"`
}

func (a *app) handlePublicNotice(w http.ResponseWriter, r *http.Request) {
	env, err := a.Services.Notices.GetByID(r.Context(), r.PathValue("id"))
	if err != nil || env.Data == nil {
		writeItem(w, env, err)
		return
	}
	writeJSON(w, http.StatusOK, backend.Envelope[noticeDetail]{
		Success: true,
		Data:    noticeDetail{Notice: *env.Data, HTML: string(renderMarkdown(env.Data.Content))},
		Message: env.Message,
	})
}

// writeItem answers a single-record lookup; a missing record is a 404.
func writeItem[T any](w http.ResponseWriter, env backend.Envelope[*T], err error) {
	if err == nil && env.Data == nil {
		err = orchestrators.ErrNotFound
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}
