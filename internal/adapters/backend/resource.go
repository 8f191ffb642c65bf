package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"dq/internal/application/listutil"
)

// DeletedMessage is reported when a delete succeeds without a backend message.
const DeletedMessage = "Deleted successfully"

// Result is the normalised outcome of a mutation without a returned record.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Resource is the CRUD contract for one backend collection.
type Resource[T any] struct {
	client    *Client
	path      string
	fallbacks []string
}

// NewResource binds a collection path such as "/programs". Fallbacks are public
// list paths probed in order when the primary list answers 401 or 403.
func NewResource[T any](c *Client, path string, fallbacks ...string) *Resource[T] {
	return &Resource[T]{client: c, path: path, fallbacks: fallbacks}
}

// Path returns the collection path.
func (r *Resource[T]) Path() string { return r.path }

// GetAll lists the collection.
// 404 is an empty success. 401/403 probe each fallback in order and degrade to
// an empty success when none answer.
// POST: on success Data is non-nil and Pagination is fully populated
func (r *Resource[T]) GetAll(ctx context.Context, p listutil.ListParams) (Envelope[[]T], error) {
	resp, err := r.client.Do(ctx, http.MethodGet, r.path, p.Query(), nil)
	if err == nil {
		decoded, err := DecodeList[T](resp.Body)
		if err != nil {
			return Envelope[[]T]{}, fmt.Errorf("GET %s: %w", r.path, err)
		}
		return listEnvelope(decoded, p), nil
	}

	switch status := StatusOf(err); status {
	case http.StatusNotFound:
		return listEnvelope(DecodedList[T]{}, p), nil
	case http.StatusUnauthorized, http.StatusForbidden:
		for _, fb := range r.fallbacks {
			slog.Warn("backend_fallback_probe",
				"resource", r.path,
				"fallback", fb,
				"status", status,
			)
			resp, ferr := r.client.Do(ctx, http.MethodGet, fb, p.Query(), nil)
			if ferr != nil {
				continue
			}
			decoded, derr := DecodeList[T](resp.Body)
			if derr != nil {
				slog.Warn("backend_fallback_malformed", "fallback", fb, "error", derr)
				continue
			}
			return listEnvelope(decoded, p), nil
		}
		return listEnvelope(DecodedList[T]{}, p), nil
	default:
		return Envelope[[]T]{}, err
	}
}

func listEnvelope[T any](d DecodedList[T], p listutil.ListParams) Envelope[[]T] {
	items := d.Items
	if items == nil {
		items = []T{}
	}
	info := listutil.NormalizePagination(d.Pagination, len(items), p.Page, p.Limit)
	return Envelope[[]T]{Success: true, Data: items, Message: d.Message, Pagination: &info}
}

// GetByID fetches one record. 404 is a success with nil Data.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (Envelope[*T], error) {
	return r.getOne(ctx, r.path+"/"+url.PathEscape(id))
}

// GetBySlug fetches one record by slug. 404 is a success with nil Data.
func (r *Resource[T]) GetBySlug(ctx context.Context, slug string) (Envelope[*T], error) {
	return r.getOne(ctx, r.path+"/slug/"+url.PathEscape(slug))
}

func (r *Resource[T]) getOne(ctx context.Context, path string) (Envelope[*T], error) {
	resp, err := r.client.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return Envelope[*T]{Success: true}, nil
		}
		return Envelope[*T]{}, err
	}
	item, message, err := DecodeItem[T](resp.Body)
	if err != nil {
		return Envelope[*T]{}, fmt.Errorf("GET %s: %w", path, err)
	}
	return Envelope[*T]{Success: true, Data: item, Message: message}, nil
}

// Create posts a new record. body is a *Payload or any JSON-encodable value.
func (r *Resource[T]) Create(ctx context.Context, body any) (Envelope[*T], error) {
	return r.mutate(ctx, http.MethodPost, r.path, body)
}

// Update replaces a record. Build body with NewUpdatePayload to apply the media rules.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (Envelope[*T], error) {
	return r.mutate(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), body)
}

// Patch sends a partial update to a sub-path of a record, e.g. "status".
func (r *Resource[T]) Patch(ctx context.Context, id, sub string, body any) (Envelope[*T], error) {
	path := r.path + "/" + url.PathEscape(id)
	if sub != "" {
		path += "/" + sub
	}
	return r.mutate(ctx, http.MethodPatch, path, body)
}

func (r *Resource[T]) mutate(ctx context.Context, method, path string, body any) (Envelope[*T], error) {
	resp, err := r.client.Do(ctx, method, path, nil, body)
	if err != nil {
		return Envelope[*T]{}, err
	}
	item, message, err := DecodeItem[T](resp.Body)
	if err != nil {
		return Envelope[*T]{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return Envelope[*T]{Success: true, Data: item, Message: message}, nil
}

// Delete removes a record and normalises the reply to {success, message},
// including when the backend sends no body.
func (r *Resource[T]) Delete(ctx context.Context, id string) (Result, error) {
	path := r.path + "/" + url.PathEscape(id)
	resp, err := r.client.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return Result{}, err
	}
	success, message, err := DecodeMessage(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("DELETE %s: %w", path, err)
	}
	if message == "" {
		message = DeletedMessage
	}
	return Result{Success: success, Message: message}, nil
}
