package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"dq/internal/adapters/backend"
)

// maxUploadBytes bounds a multipart request, files included.
const maxUploadBytes = 32 << 20

// maxJSONBytes bounds a JSON request body.
const maxJSONBytes = 1 << 20

// requestFields reads the same named fields from a JSON body, a urlencoded form
// or a multipart form with uploads.
type requestFields struct {
	json  map[string]json.RawMessage
	form  map[string][]string
	files map[string][]*multipart.FileHeader
}

func readFields(w http.ResponseWriter, r *http.Request) (*requestFields, error) {
	if isJSONRequest(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
		f := &requestFields{json: map[string]json.RawMessage{}}
		if err := json.NewDecoder(r.Body).Decode(&f.json); err != nil && err != io.EOF {
			return nil, badInput("invalid JSON body")
		}
		return f, nil
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, badInput("invalid form upload")
		}
		return &requestFields{form: r.MultipartForm.Value, files: r.MultipartForm.File}, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, badInput("invalid form")
	}
	return &requestFields{form: r.PostForm}, nil
}

// has reports whether key was sent at all.
func (f *requestFields) has(key string) bool {
	if f.json != nil {
		_, ok := f.json[key]
		return ok
	}
	_, ok := f.form[key]
	return ok
}

// str returns a trimmed string. JSON numbers and booleans are returned as text.
func (f *requestFields) str(key string) string {
	if f.json != nil {
		raw, ok := f.json[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		if string(raw) == "null" {
			return ""
		}
		return strings.TrimSpace(string(raw))
	}
	if v := f.form[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// list returns a string list. Forms may send repeated keys or one comma
// separated value.
func (f *requestFields) list(key string) []string {
	var raw []string
	if f.json != nil {
		if v, ok := f.json[key]; ok {
			if err := json.Unmarshal(v, &raw); err != nil {
				raw = strings.Split(f.str(key), ",")
			}
		}
	} else {
		for _, v := range f.form[key] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// floats parses a number list such as "100, 500, 1000".
func (f *requestFields) floats(key string) ([]float64, error) {
	if f.json != nil {
		if v, ok := f.json[key]; ok {
			var nums []float64
			if err := json.Unmarshal(v, &nums); err == nil {
				return nums, nil
			}
		}
	}
	var out []float64
	for _, s := range f.list(key) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, badInput("%s must be a list of numbers", key)
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *requestFields) integer(key string) (int, error) {
	s := f.str(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badInput("%s must be a whole number", key)
	}
	return n, nil
}

func (f *requestFields) boolean(key string) bool {
	switch strings.ToLower(f.str(key)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// optionalFloat returns nil when key is absent or empty.
func (f *requestFields) optionalFloat(key string) (*float64, error) {
	s := f.str(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, badInput("%s must be a number", key)
	}
	return &n, nil
}

// media returns the upload under key if one was sent, else the URL text.
func (f *requestFields) media(key string) (backend.Media, error) {
	if hs := f.files[key]; len(hs) > 0 && hs[0].Size > 0 {
		file, err := readUpload(hs[0])
		if err != nil {
			return backend.Media{}, err
		}
		return backend.Media{File: file}, nil
	}
	return backend.Media{URL: f.str(key)}, nil
}

// mediaList returns kept URLs from existingKey followed by new uploads under fileKey.
func (f *requestFields) mediaList(fileKey, existingKey string) ([]backend.Media, error) {
	var out []backend.Media
	for _, u := range f.list(existingKey) {
		out = append(out, backend.Media{URL: u})
	}
	for _, h := range f.files[fileKey] {
		if h.Size == 0 {
			continue
		}
		file, err := readUpload(h)
		if err != nil {
			return nil, err
		}
		out = append(out, backend.Media{File: file})
	}
	return out, nil
}

func readUpload(h *multipart.FileHeader) (*backend.File, error) {
	src, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", h.Filename, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", h.Filename, err)
	}
	ct := h.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &backend.File{Filename: h.Filename, ContentType: ct, Data: data}, nil
}
