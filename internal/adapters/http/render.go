package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/http/middleware"
	"dq/internal/application/listutil"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/donation"
	"dq/internal/domain/donationcategory"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/notice"
	"dq/internal/domain/program"
	"dq/internal/domain/slug"
	"dq/internal/domain/user"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts notice content to HTML, escaping it on failure.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// baseFuncs are replaced per request where they depend on the request.
var baseFuncs = template.FuncMap{
	"csrfToken":      func() string { return "" },
	"isLoggedIn":     func() bool { return false },
	"renderMarkdown": renderMarkdown,
	"formatAmount":   formatAmount,
	"add":            func(a, b int) int { return a + b },
	"sub":            func(a, b int) int { return a - b },
	"pageQuery": func(page int, search string) template.URL {
		q := "page=" + strconv.Itoa(page)
		if search != "" {
			q += "&searchTerm=" + template.URLQueryEscaper(search)
		}
		return template.URL(q)
	},
	"isSelectedAmount": func(sel *float64, v float64) bool { return sel != nil && *sel == v },
}

// pages holds each page template parsed together with the layout.
var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		out[base] = template.Must(template.New("layout.html").Funcs(baseFuncs).ParseFS(templateFS, "templates/layout.html", name))
	}
	return out
}

// formatAmount prints whole taka without decimals, e.g. 1500 -> "৳1,500".
func formatAmount(v float64) string {
	whole := int64(v)
	s := strconv.FormatInt(whole, 10)
	if v != float64(whole) {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 && intPart[i-1] != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteString("." + frac)
	}
	return donation.CurrencySymbol + b.String()
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tpl, ok := pages[name]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", name))
		return
	}
	tpl, err := tpl.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	_, loggedIn := middleware.SubjectFromContext(r.Context())
	tpl.Funcs(template.FuncMap{
		"csrfToken":  func() string { return csrf.Token(r) },
		"isLoggedIn": func() bool { return loggedIn },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderTemplate(w, r, status, "error.html", map[string]any{
		"Title":   http.StatusText(status),
		"Message": message,
	})
}

// apiResponse is the JSON envelope for every endpoint this server answers.
type apiResponse struct {
	Success    bool                     `json:"success"`
	Data       any                      `json:"data,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Pagination *listutil.PaginationInfo `json:"pagination,omitempty"`
	Errors     map[string]string        `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	internalErrorLog(err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func internalErrorLog(err error) {
	slog.Error("internal_error", "error", err.Error())
}

// inputError is a request the server could not read, e.g. a bad number.
type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }

func badInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// validationErrors are the domain rejections shown to the caller verbatim.
var validationErrors = []error{
	orchestrators.ErrSlugExists,
	slug.ErrInvalidSlug,
	donationcategory.ErrEmptyTitle, donationcategory.ErrEmptySlug,
	donationcategory.ErrNoPresets, donationcategory.ErrMixedPresets, donationcategory.ErrNonPositiveStep,
	program.ErrEmptyTitle, program.ErrEmptyTag,
	notice.ErrEmptyTitle, notice.ErrEmptyContent, notice.ErrInvalidDate,
	heroimage.ErrEmptyImage, heroimage.ErrNegativeOrder,
	user.ErrEmptyName, user.ErrInvalidEmail, user.ErrInvalidRole,
	memberapplication.ErrInvalidStatus, memberapplication.ErrInvalidPaymentStatus,
	memberapplication.ErrEmptyStatusUpdate,
	donation.ErrInvalidTab,
}

// errorStatus maps an error to the status and message a caller sees.
// Upstream errors keep the backend's status and message; unknown failures are
// logged and reported as a generic 502.
func errorStatus(err error) (int, string) {
	var inErr *inputError
	if errors.As(err, &inErr) {
		return http.StatusBadRequest, inErr.msg
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, v.Error()
		}
	}
	if errors.Is(err, orchestrators.ErrNotFound) {
		return http.StatusNotFound, orchestrators.ErrNotFound.Error()
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, apiErr.Message
	}
	slog.Error("backend_error", "error", err.Error())
	return http.StatusBadGateway, "Backend unavailable, please try again"
}

// writeAPIError answers a JSON caller for err.
func writeAPIError(w http.ResponseWriter, err error) {
	var verrs donation.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Please correct the highlighted fields", Errors: verrs})
		return
	}
	status, message := errorStatus(err)
	writeFailure(w, status, message)
}
