package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dq/internal/adapters/backend"
	"dq/internal/domain/donationcategory"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/notice"
	"dq/internal/domain/program"
	"dq/internal/domain/slug"
	"dq/internal/domain/user"
)

// ErrSlugExists is returned when another record already uses the slug.
var ErrSlugExists = errors.New("Slug already exists")

// RecordWriter creates and updates one backend collection.
type RecordWriter[T any] interface {
	Create(ctx context.Context, body any) (backend.Envelope[*T], error)
	Update(ctx context.Context, id string, body any) (backend.Envelope[*T], error)
}

// SluggedWriter is a RecordWriter that can also look records up by slug.
type SluggedWriter[T any] interface {
	RecordWriter[T]
	GetBySlug(ctx context.Context, slug string) (backend.Envelope[*T], error)
}

// Invalidator drops cached public lists after a mutation.
type Invalidator interface {
	Invalidate(resource string)
}

// ContentDeps is shared by the content save orchestrators.
type ContentDeps struct {
	Cache Invalidator // optional
}

func (d ContentDeps) invalidate(resource string) {
	if d.Cache != nil {
		d.Cache.Invalidate(resource)
	}
}

// EnsureSlugAvailable fails with ErrSlugExists when a record other than exceptID
// holds slug. An empty exceptID means the caller is creating.
// PRE: s is a valid slug
func EnsureSlugAvailable[T any](ctx context.Context, r SluggedWriter[T], s, exceptID string, idOf func(*T) string) error {
	found, err := r.GetBySlug(ctx, s)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if found.Data == nil {
		return nil
	}
	if exceptID != "" && idOf(found.Data) == exceptID {
		return nil
	}
	return ErrSlugExists
}

func payloadFor(id string) *backend.Payload {
	if id == "" {
		return backend.NewCreatePayload()
	}
	return backend.NewUpdatePayload()
}

// save posts or puts body and returns the stored record, falling back to submitted
// when the backend echoes nothing.
func save[T any](ctx context.Context, w RecordWriter[T], id string, body *backend.Payload, submitted T) (T, error) {
	var env backend.Envelope[*T]
	var err error
	if id == "" {
		env, err = w.Create(ctx, body)
	} else {
		env, err = w.Update(ctx, id, body)
	}
	if err != nil {
		return submitted, err
	}
	if env.Data == nil {
		return submitted, nil
	}
	return *env.Data, nil
}

func nonEmpty(v []string) any {
	if len(v) == 0 {
		return nil
	}
	return v
}

// --- Donation categories ---

// SaveDonationCategoryInput carries a create (empty ID) or update.
type SaveDonationCategoryInput struct {
	ID        string
	Category  donationcategory.DonationCategory
	Thumbnail backend.Media
}

// ExecuteSaveDonationCategory validates, checks the slug and writes the category.
// PRE: Category.Presets built with donationcategory.FromLists
// POST: ErrSlugExists when another category holds the slug; otherwise the stored category
func ExecuteSaveDonationCategory(ctx context.Context, in SaveDonationCategoryInput, w SluggedWriter[donationcategory.DonationCategory], deps ContentDeps) (donationcategory.DonationCategory, error) {
	c := in.Category
	if c.Slug == "" {
		c.Slug = slug.Make(c.Title)
	}
	if c.Thumbnail == "" && !in.Thumbnail.IsUpload() {
		c.Thumbnail = in.Thumbnail.URL
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	if err := EnsureSlugAvailable(ctx, w, c.Slug, in.ID, func(d *donationcategory.DonationCategory) string { return d.ID }); err != nil {
		return c, err
	}

	body := payloadFor(in.ID).
		Set("title", c.Title).
		Set("subtitle", c.Subtitle).
		Set("slug", c.Slug).
		Set("description", c.Description).
		Set("videoUrl", c.VideoURL).
		Set("expenseCategory", nonEmpty(c.ExpenseCategories)).
		SetMedia("thumbnail", in.Thumbnail)
	if c.Presets.IsTiered() {
		body.Set("daily", c.Presets.Daily).Set("monthly", c.Presets.Monthly)
	} else {
		body.Set("amount", c.Presets.Amounts)
	}

	saved, err := save(ctx, w, in.ID, body, c)
	if err != nil {
		return c, err
	}
	deps.invalidate(backend.PathDonationCategories)
	slog.Info("content_event", "event", eventName(in.ID), "resource", "donation_category", "slug", c.Slug)
	return saved, nil
}

// --- Programs and activities ---

// SaveProgramInput carries a create (empty ID) or update of a program or activity.
type SaveProgramInput struct {
	ID      string
	Kind    program.Kind
	Program program.Program
	Image   backend.Media
	Gallery []backend.Media
}

// galleryKeys returns the multipart field and the keep-list field for a kind.
func galleryKeys(k program.Kind) (string, string) {
	if k == program.KindActivity {
		return "images", "existingImages"
	}
	return "media", "existingMedia"
}

// ExecuteSaveProgram validates and writes a program or activity. The slug is
// checked only when one is set.
// POST: ErrSlugExists when another record of the same kind holds the slug
func ExecuteSaveProgram(ctx context.Context, in SaveProgramInput, w SluggedWriter[program.Program], deps ContentDeps) (program.Program, error) {
	p := in.Program
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.Slug != "" {
		if err := slug.Validate(p.Slug); err != nil {
			return p, err
		}
		if err := EnsureSlugAvailable(ctx, w, p.Slug, in.ID, func(x *program.Program) string { return x.ID }); err != nil {
			return p, err
		}
	}

	fileKey, keepKey := galleryKeys(in.Kind)
	body := payloadFor(in.ID).
		Set("title", p.Title).
		Set("tag", p.Tag).
		Set("description", p.Description).
		Set("area", p.Area).
		Set("duration", p.Duration).
		Set("beneficiaries", nonEmpty(p.Beneficiaries)).
		Set("goals", nonEmpty(p.Goals)).
		SetMedia("image", in.Image)
	if p.Slug != "" {
		body.Set("slug", p.Slug)
	}
	if len(in.Gallery) > 0 || in.ID != "" {
		body.SetMediaList(fileKey, keepKey, in.Gallery)
	}

	saved, err := save(ctx, w, in.ID, body, p)
	if err != nil {
		return p, err
	}
	resource := backend.PathPrograms
	if in.Kind == program.KindActivity {
		resource = backend.PathActivities
	}
	deps.invalidate(resource)
	slog.Info("content_event", "event", eventName(in.ID), "resource", string(in.Kind), "title", p.Title)
	return saved, nil
}

// --- Notices ---

// ExecuteSaveNotice validates and writes a notice.
func ExecuteSaveNotice(ctx context.Context, id string, n notice.Notice, w RecordWriter[notice.Notice], deps ContentDeps) (notice.Notice, error) {
	if err := n.Validate(); err != nil {
		return n, err
	}
	body := payloadFor(id).
		Set("title", n.Title).
		Set("subtitle", n.Subtitle).
		Set("date", n.Date).
		Set("category", n.Category).
		Set("content", n.Content)
	saved, err := save(ctx, w, id, body, n)
	if err != nil {
		return n, err
	}
	deps.invalidate(backend.PathNotices)
	slog.Info("content_event", "event", eventName(id), "resource", "notice", "title", n.Title)
	return saved, nil
}

// --- Hero images ---

// ExecuteSaveHeroImage validates and writes a hero image. A new upload satisfies
// the image requirement.
func ExecuteSaveHeroImage(ctx context.Context, id string, h heroimage.HeroImage, image backend.Media, w RecordWriter[heroimage.HeroImage], deps ContentDeps) (heroimage.HeroImage, error) {
	check := h
	if check.Image == "" {
		check.Image = image.URL
		if image.IsUpload() {
			check.Image = image.File.Filename
		}
	}
	if err := check.Validate(); err != nil {
		return h, err
	}
	body := payloadFor(id).
		Set("title", h.Title).
		Set("description", h.Description).
		Set("order", h.Order).
		Set("isActive", h.IsActive).
		SetMedia("image", image)
	saved, err := save(ctx, w, id, body, h)
	if err != nil {
		return h, err
	}
	deps.invalidate(backend.PathHeroImages)
	slog.Info("content_event", "event", eventName(id), "resource", "hero_image", "order", h.Order)
	return saved, nil
}

// HeroImageToggler reads a hero image and patches its active flag.
type HeroImageToggler interface {
	GetByID(ctx context.Context, id string) (backend.Envelope[*heroimage.HeroImage], error)
	Patch(ctx context.Context, id, sub string, body any) (backend.Envelope[*heroimage.HeroImage], error)
}

// activeFlag is the partial body of a toggle.
type activeFlag struct {
	IsActive bool `json:"isActive"`
}

// ErrNotFound is returned when the record to act on does not exist.
var ErrNotFound = errors.New("Record not found")

// ExecuteToggleHeroImage flips IsActive with a PATCH so the rest of the record is
// left alone. The image is never deleted.
func ExecuteToggleHeroImage(ctx context.Context, id string, r HeroImageToggler, deps ContentDeps) (heroimage.HeroImage, error) {
	env, err := r.GetByID(ctx, id)
	if err != nil {
		return heroimage.HeroImage{}, err
	}
	if env.Data == nil {
		return heroimage.HeroImage{}, ErrNotFound
	}
	h := *env.Data
	h.Toggle()
	patched, err := r.Patch(ctx, id, "", activeFlag{IsActive: h.IsActive})
	if err != nil {
		return h, err
	}
	saved := h
	if patched.Data != nil {
		saved = *patched.Data
	}
	deps.invalidate(backend.PathHeroImages)
	slog.Info("content_event", "event", "toggled", "resource", "hero_image", "id", id, "is_active", h.IsActive)
	return saved, nil
}

// --- Users ---

// ExecuteSaveUser validates and writes a user.
func ExecuteSaveUser(ctx context.Context, id string, u user.User, w RecordWriter[user.User]) (user.User, error) {
	if err := u.Validate(); err != nil {
		return u, err
	}
	body := payloadFor(id).
		Set("name", u.Name).
		Set("email", u.Email).
		Set("phone", u.Phone).
		Set("role", u.Role)
	saved, err := save(ctx, w, id, body, u)
	if err != nil {
		return u, err
	}
	slog.Info("content_event", "event", eventName(id), "resource", "user", "role", u.Role)
	return saved, nil
}

// --- Member applications ---

// StatusPatcher applies partial updates to a member application.
type StatusPatcher interface {
	Patch(ctx context.Context, id, sub string, body any) (backend.Envelope[*memberapplication.MemberApplication], error)
}

// ExecuteUpdateApplicationStatus sets status and/or payment status. Any valid value may be set.
func ExecuteUpdateApplicationStatus(ctx context.Context, id string, upd memberapplication.StatusUpdate, p StatusPatcher) (*memberapplication.MemberApplication, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	env, err := p.Patch(ctx, id, "status", upd)
	if err != nil {
		return nil, err
	}
	slog.Info("content_event", "event", "status_changed", "resource", "member_application", "id", id, "status", upd.Status, "payment_status", upd.PaymentStatus)
	return env.Data, nil
}

func eventName(id string) string {
	if id == "" {
		return "created"
	}
	return "updated"
}
