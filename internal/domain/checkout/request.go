package checkout

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Request is a validated checkout request. It is never persisted.
type Request struct {
	ItemIDs []string
	Email   string

	// RawSelection is the id list exactly as the client sent it (compact JSON),
	// duplicates and number/string spelling included. Empty when unknown.
	RawSelection json.RawMessage
}

// WithRawSelection records the client's id list verbatim. Input that is not a
// JSON array leaves the request unchanged.
func (r Request) WithRawSelection(raw []byte) Request {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil || buf.Len() == 0 || buf.Bytes()[0] != '[' {
		return r
	}
	r.RawSelection = buf.Bytes()
	return r
}

// NewRequest validates the selection before the email, so a request missing
// both reports the selection problem.
func NewRequest(itemIDs []string, email string) (Request, error) {
	ids := NewSelection(itemIDs...).IDs()
	if len(ids) == 0 {
		return Request{}, ErrInvalidSelection
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return Request{}, ErrMissingEmail
	}
	return Request{ItemIDs: ids, Email: email}, nil
}

// ParseIDList decodes a JSON array of ids. Numbers and strings are both
// accepted and normalized to their string form, so 1 and "1" are the same id.
// Anything that is not an array of numbers and non-blank strings is ErrInvalidSelection.
// An empty array decodes to an empty list; NewRequest rejects it.
func ParseIDList(raw []byte) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidSelection
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, ErrInvalidSelection.Wrap(err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		id, ok := normalizeID(v)
		if !ok {
			return nil, ErrInvalidSelection
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseID decodes a single JSON id (number or string)
func ParseID(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", ErrInvalidSelection.Wrap(err)
	}
	id, ok := normalizeID(v)
	if !ok {
		return "", ErrInvalidSelection
	}
	return id, nil
}

func normalizeID(v any) (string, bool) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), true
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	default:
		return "", false
	}
}
