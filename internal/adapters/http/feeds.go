package web

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"dq/internal/adapters/backend"
	"dq/internal/application/contentstate"
	"dq/internal/application/listutil"
	"dq/internal/domain/content"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/notice"
	"dq/internal/domain/program"
)

// FeedSet is the public content cache for one language.
type FeedSet struct {
	Activities *contentstate.Container[program.Program]
	Blogs      *contentstate.Container[content.Blog]
	Notices    *contentstate.Container[notice.Notice]
	Gallery    *contentstate.Container[content.GalleryItem]
	HeroImages *contentstate.Container[heroimage.HeroImage]
}

// Feeds hands out a FeedSet per Accept-Language value. Backends translate
// content server-side, so each language gets its own containers.
type Feeds struct {
	services *backend.Services
	maxAge   time.Duration
	registry *contentstate.Registry

	mu   sync.Mutex
	sets map[string]*FeedSet
}

// NewFeeds creates an empty feed cache. Containers are registered with registry
// as they are created so admin mutations invalidate every language.
func NewFeeds(s *backend.Services, maxAge time.Duration, registry *contentstate.Registry) *Feeds {
	return &Feeds{services: s, maxAge: maxAge, registry: registry, sets: make(map[string]*FeedSet)}
}

// maxLanguages bounds how many distinct lang cookie values get their own cache.
const maxLanguages = 8

// For returns the containers for lang, creating them on first use. Once
// maxLanguages sets exist, unseen languages share the default set.
func (f *Feeds) For(lang string) *FeedSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.sets[lang]; ok {
		return set
	}
	if len(f.sets) >= maxLanguages {
		if set, ok := f.sets[""]; ok {
			return set
		}
		lang = ""
	}
	set := &FeedSet{
		Activities: contentstate.New("activities", listAll(f.services.Activities, lang), f.maxAge),
		Blogs:      contentstate.New("blogs", listAll(f.services.Blogs, lang), f.maxAge),
		Notices:    contentstate.New("notices", listAll(f.services.Notices, lang), f.maxAge),
		Gallery:    contentstate.New("gallery", listAll(f.services.Gallery, lang), f.maxAge),
		HeroImages: contentstate.New("hero-images", listAll(f.services.HeroImages, lang), f.maxAge),
	}
	f.registry.Register(backend.PathActivities, set.Activities)
	f.registry.Register(backend.PathBlogs, set.Blogs)
	f.registry.Register(backend.PathNotices, set.Notices)
	f.registry.Register(backend.PathGallery, set.Gallery)
	f.registry.Register(backend.PathHeroImages, set.HeroImages)
	f.sets[lang] = set
	return set
}

// FeedState is one cached feed as the admin feed view reports it.
type FeedState struct {
	Language  string     `json:"language"`
	Feed      string     `json:"feed"`
	Status    string     `json:"status"`
	Items     int        `json:"items"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// States reports every container without triggering a fetch, ordered by
// language then feed.
func (f *Feeds) States() []FeedState {
	f.mu.Lock()
	langs := make([]string, 0, len(f.sets))
	sets := make(map[string]*FeedSet, len(f.sets))
	for lang, set := range f.sets {
		langs = append(langs, lang)
		sets[lang] = set
	}
	f.mu.Unlock()
	sort.Strings(langs)

	var out []FeedState
	for _, lang := range langs {
		set := sets[lang]
		out = append(out,
			stateOf(lang, set.Activities),
			stateOf(lang, set.Blogs),
			stateOf(lang, set.Gallery),
			stateOf(lang, set.HeroImages),
			stateOf(lang, set.Notices),
		)
	}
	return out
}

func stateOf[T any](lang string, c *contentstate.Container[T]) FeedState {
	snap := c.Peek()
	st := FeedState{Language: lang, Feed: c.Name(), Status: string(snap.Status), Items: len(snap.Items)}
	if !snap.FetchedAt.IsZero() {
		at := snap.FetchedAt
		st.FetchedAt = &at
	}
	if snap.Err != nil {
		st.Error = snap.Err.Error()
	}
	return st
}

// maxFeedPages bounds how many backend pages one feed refresh will walk.
const maxFeedPages = 50

// listAll fetches every page of the collection in the container's language,
// whatever language the triggering request carried. Pages are walked until the
// backend's totalPages or an empty page.
func listAll[T any](r *backend.Resource[T], lang string) contentstate.FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		ctx = backend.WithLanguage(ctx, lang)
		var all []T
		for page := 1; ; page++ {
			env, err := r.GetAll(ctx, listutil.ListParams{Page: page, Limit: listutil.MaxLimit})
			if err != nil {
				return nil, err
			}
			all = append(all, env.Data...)
			if len(env.Data) == 0 || page >= env.Pagination.TotalPages {
				break
			}
			if page == maxFeedPages {
				slog.Warn("feed_truncated", "resource", r.Path(), "pages", page, "total_pages", env.Pagination.TotalPages)
				break
			}
		}
		return all, nil
	}
}
