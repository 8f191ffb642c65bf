package web

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dq/internal/adapters/backend"
	"dq/internal/application/listutil"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/donationcategory"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/notice"
	"dq/internal/domain/program"
	"dq/internal/domain/user"
)

// collection is the read and delete side of a backend.Resource.
type collection[T any] interface {
	GetAll(ctx context.Context, p listutil.ListParams) (backend.Envelope[[]T], error)
	GetByID(ctx context.Context, id string) (backend.Envelope[*T], error)
	Delete(ctx context.Context, id string) (backend.Result, error)
}

// formField is one input on the generic dashboard form.
type formField struct {
	Name     string
	Label    string
	Type     string // text, textarea, number, date, url, email, checkbox, select, file, files
	Value    string
	Options  []string
	Checked  bool
	Help     string
	Required bool
}

// rowAction is a POST button shown next to a list row.
type rowAction struct {
	Label   string
	URL     string
	Confirm string
	Hidden  map[string]string
}

// adminResource describes one admin collection for both the JSON API and the
// dashboard pages.
type adminResource[T any] struct {
	name       string // URL segment, e.g. "donation-categories"
	title      string
	cachePath  string // backend path whose public caches a delete invalidates
	cache      orchestrators.Invalidator
	coll       collection[T]
	filterKeys []string

	// save creates (empty id) or updates a record. nil makes the resource read-only.
	save func(ctx context.Context, id string, f *requestFields) (T, error)

	id      func(T) string
	columns []string
	row     func(T) []string
	form    func(rec T) []formField
	actions func(T) []rowAction
}

// resourceRoutes lets collections of different record types share one slice.
type resourceRoutes interface {
	registerAPI(mux muxer, wrap wrapper)
	registerDashboard(mux muxer, wrap wrapper)
}

func (a *app) resources() []resourceRoutes {
	s := a.Services
	return []resourceRoutes{
		a.programResource("programs", "Programs", program.KindProgram, s.Programs),
		a.programResource("activities", "Activities", program.KindActivity, s.Activities),
		a.donationCategoryResource(),
		a.heroImageResource(),
		a.noticeResource(),
		a.userResource(),
		a.memberApplicationResource(),
	}
}

func (a *app) programResource(name, title string, kind program.Kind, r *backend.Resource[program.Program]) *adminResource[program.Program] {
	fileKey, keepKey := "media", "existingMedia"
	if kind == program.KindActivity {
		fileKey, keepKey = "images", "existingImages"
	}
	return &adminResource[program.Program]{
		name: name, title: title, cachePath: r.Path(), cache: a.Cache, coll: r,
		filterKeys: []string{"tag"},
		save: func(ctx context.Context, id string, f *requestFields) (program.Program, error) {
			image, err := f.media("image")
			if err != nil {
				return program.Program{}, err
			}
			gallery, err := f.mediaList(fileKey, keepKey)
			if err != nil {
				return program.Program{}, err
			}
			return orchestrators.ExecuteSaveProgram(ctx, orchestrators.SaveProgramInput{
				ID:   id,
				Kind: kind,
				Program: program.Program{
					Title:         f.str("title"),
					Slug:          f.str("slug"),
					Tag:           f.str("tag"),
					Description:   f.str("description"),
					Area:          f.str("area"),
					Duration:      f.str("duration"),
					Beneficiaries: f.list("beneficiaries"),
					Goals:         f.list("goals"),
				},
				Image:   image,
				Gallery: gallery,
			}, r, a.content)
		},
		id:      func(p program.Program) string { return p.ID },
		columns: []string{"Title", "Tag", "Slug", "Area"},
		row:     func(p program.Program) []string { return []string{p.Title, p.Tag, p.Slug, p.Area} },
		form: func(p program.Program) []formField {
			return []formField{
				{Name: "title", Label: "Title", Type: "text", Value: p.Title, Required: true},
				{Name: "slug", Label: "Slug", Type: "text", Value: p.Slug, Help: "Optional. Lowercase letters, digits and hyphens."},
				{Name: "tag", Label: "Tag", Type: "text", Value: p.Tag, Required: true},
				{Name: "description", Label: "Description", Type: "textarea", Value: p.Description},
				{Name: "area", Label: "Area", Type: "text", Value: p.Area},
				{Name: "duration", Label: "Duration", Type: "text", Value: p.Duration},
				{Name: "beneficiaries", Label: "Beneficiaries", Type: "text", Value: strings.Join(p.Beneficiaries, ", "), Help: "Comma separated"},
				{Name: "goals", Label: "Goals", Type: "text", Value: strings.Join(p.Goals, ", "), Help: "Comma separated"},
				{Name: "image", Label: "Cover image URL", Type: "url", Value: p.Image},
				{Name: "image", Label: "Or upload a cover image", Type: "file"},
				{Name: keepKey, Label: "Gallery URLs to keep", Type: "text", Value: strings.Join(p.Media, ", "), Help: "Comma separated"},
				{Name: fileKey, Label: "Add gallery images", Type: "files"},
			}
		},
	}
}

func (a *app) donationCategoryResource() *adminResource[donationcategory.DonationCategory] {
	r := a.Services.DonationCategories
	return &adminResource[donationcategory.DonationCategory]{
		name: "donation-categories", title: "Donation categories", cachePath: r.Path(), cache: a.Cache, coll: r,
		save: func(ctx context.Context, id string, f *requestFields) (donationcategory.DonationCategory, error) {
			var lists [3][]float64
			for i, key := range []string{"daily", "monthly", "amount"} {
				v, err := f.floats(key)
				if err != nil {
					return donationcategory.DonationCategory{}, err
				}
				lists[i] = v
			}
			presets, err := donationcategory.FromLists(lists[0], lists[1], lists[2])
			if err != nil {
				return donationcategory.DonationCategory{}, err
			}
			thumb, err := f.media("thumbnail")
			if err != nil {
				return donationcategory.DonationCategory{}, err
			}
			return orchestrators.ExecuteSaveDonationCategory(ctx, orchestrators.SaveDonationCategoryInput{
				ID: id,
				Category: donationcategory.DonationCategory{
					Title:             f.str("title"),
					Subtitle:          f.str("subtitle"),
					Slug:              f.str("slug"),
					Description:       f.str("description"),
					VideoURL:          f.str("videoUrl"),
					ExpenseCategories: f.list("expenseCategory"),
					Presets:           presets,
				},
				Thumbnail: thumb,
			}, r, a.content)
		},
		id:      func(c donationcategory.DonationCategory) string { return c.ID },
		columns: []string{"Title", "Slug", "Presets"},
		row: func(c donationcategory.DonationCategory) []string {
			return []string{c.Title, c.Slug, describePresets(c.Presets)}
		},
		form: func(c donationcategory.DonationCategory) []formField {
			return []formField{
				{Name: "title", Label: "Title", Type: "text", Value: c.Title, Required: true},
				{Name: "subtitle", Label: "Subtitle", Type: "text", Value: c.Subtitle},
				{Name: "slug", Label: "Slug", Type: "text", Value: c.Slug, Help: "Generated from the title when empty."},
				{Name: "description", Label: "Description", Type: "textarea", Value: c.Description},
				{Name: "videoUrl", Label: "Video URL", Type: "url", Value: c.VideoURL},
				{Name: "expenseCategory", Label: "Expense categories", Type: "text", Value: strings.Join(c.ExpenseCategories, ", "), Help: "Comma separated"},
				{Name: "amount", Label: "Flat amounts", Type: "text", Value: joinFloats(c.Presets.Amounts), Help: "Use either flat amounts or daily and monthly tiers."},
				{Name: "daily", Label: "Daily amounts", Type: "text", Value: joinFloats(c.Presets.Daily)},
				{Name: "monthly", Label: "Monthly amounts", Type: "text", Value: joinFloats(c.Presets.Monthly)},
				{Name: "thumbnail", Label: "Thumbnail URL", Type: "url", Value: c.Thumbnail},
				{Name: "thumbnail", Label: "Or upload a thumbnail", Type: "file"},
			}
		},
	}
}

func (a *app) heroImageResource() *adminResource[heroimage.HeroImage] {
	r := a.Services.HeroImages
	return &adminResource[heroimage.HeroImage]{
		name: "hero-images", title: "Hero images", cachePath: r.Path(), cache: a.Cache, coll: r,
		save: func(ctx context.Context, id string, f *requestFields) (heroimage.HeroImage, error) {
			order, err := f.integer("order")
			if err != nil {
				return heroimage.HeroImage{}, err
			}
			image, err := f.media("image")
			if err != nil {
				return heroimage.HeroImage{}, err
			}
			h := heroimage.HeroImage{
				Title:       f.str("title"),
				Description: f.str("description"),
				Order:       order,
				IsActive:    !f.has("isActive") || f.boolean("isActive"),
			}
			return orchestrators.ExecuteSaveHeroImage(ctx, id, h, image, r, a.content)
		},
		id:      func(h heroimage.HeroImage) string { return h.ID },
		columns: []string{"Order", "Title", "Active", "Image"},
		row: func(h heroimage.HeroImage) []string {
			return []string{strconv.Itoa(h.Order), h.Title, yesNo(h.IsActive), h.Image}
		},
		form: func(h heroimage.HeroImage) []formField {
			return []formField{
				{Name: "title", Label: "Title", Type: "text", Value: h.Title},
				{Name: "description", Label: "Description", Type: "textarea", Value: h.Description},
				{Name: "order", Label: "Order", Type: "number", Value: strconv.Itoa(h.Order), Help: "Lower numbers are shown first."},
				{Name: "isActive", Label: "Active", Type: "checkbox", Checked: h.IsActive || h.ID == ""},
				{Name: "image", Label: "Image URL", Type: "url", Value: h.Image},
				{Name: "image", Label: "Or upload an image", Type: "file"},
			}
		},
		actions: func(h heroimage.HeroImage) []rowAction {
			label := "Activate"
			if h.IsActive {
				label = "Deactivate"
			}
			return []rowAction{{Label: label, URL: "/dashboard/hero-images/" + h.ID + "/toggle"}}
		},
	}
}

func (a *app) noticeResource() *adminResource[notice.Notice] {
	r := a.Services.Notices
	return &adminResource[notice.Notice]{
		name: "notices", title: "Notices", cachePath: r.Path(), cache: a.Cache, coll: r,
		filterKeys: []string{"category"},
		save: func(ctx context.Context, id string, f *requestFields) (notice.Notice, error) {
			return orchestrators.ExecuteSaveNotice(ctx, id, notice.Notice{
				Title:    f.str("title"),
				Subtitle: f.str("subtitle"),
				Date:     f.str("date"),
				Category: f.str("category"),
				Content:  f.str("content"),
			}, r, a.content)
		},
		id:      func(n notice.Notice) string { return n.ID },
		columns: []string{"Title", "Category", "Date"},
		row:     func(n notice.Notice) []string { return []string{n.Title, n.Category, n.Date} },
		form: func(n notice.Notice) []formField {
			date := n.Date
			if len(date) > len(notice.DateLayout) {
				date = date[:len(notice.DateLayout)]
			}
			return []formField{
				{Name: "title", Label: "Title", Type: "text", Value: n.Title, Required: true},
				{Name: "subtitle", Label: "Subtitle", Type: "text", Value: n.Subtitle},
				{Name: "date", Label: "Date", Type: "date", Value: date},
				{Name: "category", Label: "Category", Type: "text", Value: n.Category},
				{Name: "content", Label: "Content", Type: "textarea", Value: n.Content, Required: true, Help: "Markdown is supported."},
			}
		},
	}
}

func (a *app) userResource() *adminResource[user.User] {
	r := a.Services.Users
	return &adminResource[user.User]{
		name: "users", title: "Users", cachePath: r.Path(), cache: a.Cache, coll: r,
		filterKeys: []string{"role"},
		save: func(ctx context.Context, id string, f *requestFields) (user.User, error) {
			return orchestrators.ExecuteSaveUser(ctx, id, user.User{
				Name:  f.str("name"),
				Email: f.str("email"),
				Phone: f.str("phone"),
				Role:  f.str("role"),
			}, r)
		},
		id:      func(u user.User) string { return u.ID },
		columns: []string{"Name", "Email", "Phone", "Role"},
		row:     func(u user.User) []string { return []string{u.Name, u.Email, u.Phone, u.Role} },
		form: func(u user.User) []formField {
			return []formField{
				{Name: "name", Label: "Name", Type: "text", Value: u.Name, Required: true},
				{Name: "email", Label: "Email", Type: "email", Value: u.Email},
				{Name: "phone", Label: "Phone", Type: "text", Value: u.Phone},
				{Name: "role", Label: "Role", Type: "select", Value: u.Role, Options: user.ValidRoles},
			}
		},
	}
}

func (a *app) memberApplicationResource() *adminResource[memberapplication.MemberApplication] {
	r := a.Services.MemberApplications
	return &adminResource[memberapplication.MemberApplication]{
		name: "member-applications", title: "Member applications", cachePath: r.Path(), cache: a.Cache, coll: r,
		filterKeys: []string{"status", "paymentStatus", "membershipType"},
		id:         func(m memberapplication.MemberApplication) string { return m.ID },
		columns:    []string{"Name", "Contact", "Type", "Amount", "Status", "Payment", "Check"},
		row: func(m memberapplication.MemberApplication) []string {
			contact := m.Email
			if contact == "" {
				contact = m.Phone
			}
			// backend records are shown as stored; the check column flags bad ones
			check := "ok"
			if err := m.Validate(); err != nil {
				check = err.Error()
			}
			return []string{m.Name, contact, m.MembershipType, formatAmount(m.Amount), m.Status, m.PaymentStatus, check}
		},
		actions: func(m memberapplication.MemberApplication) []rowAction {
			url := "/dashboard/member-applications/" + m.ID + "/status"
			var out []rowAction
			if m.Status != memberapplication.StatusApproved {
				out = append(out, rowAction{Label: "Approve", URL: url, Hidden: map[string]string{"status": memberapplication.StatusApproved}})
			}
			if m.Status != memberapplication.StatusRejected {
				out = append(out, rowAction{Label: "Reject", URL: url, Confirm: "Reject this application?", Hidden: map[string]string{"status": memberapplication.StatusRejected}})
			}
			if m.PaymentStatus != memberapplication.PaymentCompleted {
				out = append(out, rowAction{Label: "Mark paid", URL: url, Hidden: map[string]string{"paymentStatus": memberapplication.PaymentCompleted}})
			}
			return out
		},
	}
}

func describePresets(p donationcategory.AmountPresets) string {
	if p.IsTiered() {
		return fmt.Sprintf("daily %s / monthly %s", joinFloats(p.Daily), joinFloats(p.Monthly))
	}
	return joinFloats(p.Amounts)
}

func joinFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
