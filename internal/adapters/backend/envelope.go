package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"dq/internal/application/listutil"
)

// ErrMalformedResponse is returned when a 2xx body matches none of the accepted shapes.
var ErrMalformedResponse = errors.New("malformed backend response")

// Envelope is the single response contract served to dashboard and public callers.
type Envelope[T any] struct {
	Success    bool                     `json:"success"`
	Data       T                        `json:"data"`
	Message    string                   `json:"message,omitempty"`
	Pagination *listutil.PaginationInfo `json:"pagination,omitempty"`
}

// rawEnvelope is the object shape the backend may send. Fields are raw so their
// types can be checked before accepting the body.
type rawEnvelope struct {
	Success    *bool                   `json:"success"`
	Data       json.RawMessage         `json:"data"`
	Message    *string                 `json:"message"`
	Pagination *listutil.RawPagination `json:"pagination"`
}

// DecodedList is a list body after shape validation.
type DecodedList[T any] struct {
	Items      []T
	Message    string
	Pagination *listutil.RawPagination
	Rejected   int // records skipped because they did not decode
}

// DecodeList accepts exactly three shapes: a bare JSON array, {"data": [...]},
// or {"success", "data", "message", "pagination"}. A null data array decodes
// as empty. Anything else is ErrMalformedResponse. Records are checked one by one.
func DecodeList[T any](body []byte) (DecodedList[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return DecodedList[T]{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	if body[0] == '[' {
		items, rejected, err := decodeRecords[T](body)
		if err != nil {
			return DecodedList[T]{}, err
		}
		return DecodedList[T]{Items: items, Rejected: rejected}, nil
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return DecodedList[T]{}, err
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 {
		return DecodedList[T]{}, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	out := DecodedList[T]{Pagination: env.Pagination}
	if env.Message != nil {
		out.Message = *env.Message
	}
	if string(data) == "null" {
		return out, nil
	}
	if data[0] != '[' {
		return DecodedList[T]{}, fmt.Errorf("%w: data is not an array", ErrMalformedResponse)
	}
	if out.Items, out.Rejected, err = decodeRecords[T](data); err != nil {
		return DecodedList[T]{}, err
	}
	return out, nil
}

// decodeRecords decodes a JSON array one element at a time. An element that does
// not decode as T is logged and skipped so one bad record cannot blank a list;
// only a body that is not an array at all is malformed.
func decodeRecords[T any](data []byte) ([]T, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	items := make([]T, 0, len(raws))
	rejected := 0
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			rejected++
			slog.Warn("backend_record_rejected",
				"index", i,
				"id", recordID(raw),
				"reason", err.Error(),
			)
			continue
		}
		items = append(items, item)
	}
	return items, rejected, nil
}

// recordID pulls "id" (or "_id") out of a raw record for logging.
func recordID(raw json.RawMessage) string {
	var ids struct {
		ID    any `json:"id"`
		Mongo any `json:"_id"`
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return ""
	}
	for _, v := range []any{ids.ID, ids.Mongo} {
		if v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// DecodeItem accepts a bare JSON object, {"data": {...}} or the full envelope.
// A null or absent object decodes as nil.
func DecodeItem[T any](body []byte) (*T, string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || string(body) == "null" {
		return nil, "", nil
	}
	if body[0] != '{' {
		return nil, "", fmt.Errorf("%w: expected object", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, wrapped := fields["data"]; !wrapped {
		var item T
		if err := json.Unmarshal(body, &item); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return &item, "", nil
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, "", err
	}
	message := ""
	if env.Message != nil {
		message = *env.Message
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || string(data) == "null" {
		return nil, message, nil
	}
	if data[0] != '{' {
		return nil, "", fmt.Errorf("%w: data is not an object", ErrMalformedResponse)
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &item, message, nil
}

// DecodeMessage reads {success, message} from a mutation response.
// An empty body counts as success.
func DecodeMessage(body []byte) (bool, string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return true, "", nil
	}
	if body[0] != '{' {
		return false, "", fmt.Errorf("%w: expected object", ErrMalformedResponse)
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return false, "", err
	}
	success := true
	if env.Success != nil {
		success = *env.Success
	}
	message := ""
	if env.Message != nil {
		message = *env.Message
	}
	return success, message, nil
}

func decodeEnvelope(body []byte) (rawEnvelope, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return rawEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return env, nil
}
