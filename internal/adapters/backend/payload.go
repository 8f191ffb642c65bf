package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// File is an uploaded file forwarded to the backend.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Media is one image-like field: either an existing URL or a newly attached file.
type Media struct {
	URL  string
	File *File
}

// IsUpload reports whether m carries a new file.
func (m Media) IsUpload() bool { return m.File != nil }

type payloadField struct {
	key   string
	value any
}

type payloadFile struct {
	key  string
	file File
}

// Payload is a create or update request body. It is sent as JSON unless a file
// is attached, in which case it becomes multipart/form-data.
type Payload struct {
	update bool
	fields []payloadField
	files  []payloadFile
}

// NewCreatePayload returns a payload for a POST.
func NewCreatePayload() *Payload { return &Payload{} }

// NewUpdatePayload returns a payload for a PUT. Unchanged media are omitted.
func NewUpdatePayload() *Payload { return &Payload{update: true} }

// Set adds or replaces a field. Nil values are ignored.
func (p *Payload) Set(key string, value any) *Payload {
	if value == nil {
		return p
	}
	for i := range p.fields {
		if p.fields[i].key == key {
			p.fields[i].value = value
			return p
		}
	}
	p.fields = append(p.fields, payloadField{key: key, value: value})
	return p
}

// Attach adds a file under key.
func (p *Payload) Attach(key string, f File) *Payload {
	p.files = append(p.files, payloadFile{key: key, file: f})
	return p
}

// SetMedia applies the single-media rule: a new file is attached; on update an
// existing URL or an empty value is omitted to signal "no change"; on create a
// URL is sent as a plain field.
func (p *Payload) SetMedia(key string, m Media) *Payload {
	switch {
	case m.IsUpload():
		return p.Attach(key, *m.File)
	case p.update || m.URL == "":
		return p
	default:
		return p.Set(key, m.URL)
	}
}

// SetMediaList splits a media array into existing URLs, sent under existingKey,
// and new files, attached under key.
// PRE: existingKey is "existingMedia" or "existingImages" for the resource
// POST: existingKey is always present on update so removals reach the backend
func (p *Payload) SetMediaList(key, existingKey string, items []Media) *Payload {
	existing := make([]string, 0, len(items))
	for _, m := range items {
		if m.IsUpload() {
			p.Attach(key, *m.File)
			continue
		}
		if m.URL != "" {
			existing = append(existing, m.URL)
		}
	}
	if len(existing) > 0 || p.update {
		p.Set(existingKey, existing)
	}
	return p
}

// Has reports whether a field or file was set under key.
func (p *Payload) Has(key string) bool {
	for _, f := range p.fields {
		if f.key == key {
			return true
		}
	}
	for _, f := range p.files {
		if f.key == key {
			return true
		}
	}
	return false
}

// IsMultipart reports whether the payload will be sent as multipart/form-data.
func (p *Payload) IsMultipart() bool { return len(p.files) > 0 }

// Encode renders the body and its Content-Type.
// For multipart bodies the writer's boundary type replaces any preset type.
func (p *Payload) Encode() (io.Reader, string, error) {
	if !p.IsMultipart() {
		obj := make(map[string]any, len(p.fields))
		for _, f := range p.fields {
			obj[f.key] = f.value
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range p.fields {
		s, err := formValue(f.value)
		if err != nil {
			return nil, "", fmt.Errorf("field %s: %w", f.key, err)
		}
		if err := w.WriteField(f.key, s); err != nil {
			return nil, "", err
		}
	}
	for _, f := range p.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(f.key), quoteEscaper.Replace(f.file.Filename)))
		ct := f.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// formValue renders scalars directly and anything structured as JSON.
func formValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
