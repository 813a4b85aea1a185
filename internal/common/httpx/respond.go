package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// WriteJSON answers with v encoded as JSON.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem answers with a simplified RFC 7807 body.
func WriteProblem(w http.ResponseWriter, code int, typ, detail string) {
	WriteJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// WriteError maps domain errors to a status code.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrValidation):
		WriteProblem(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, domain.ErrConflict):
		WriteProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteProblem(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		WriteProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		WriteProblem(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// PathID parses the {key} path value as a positive int64.
func PathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid "+key)
		return 0, false
	}
	return id, true
}

// AtoiDefault parses s, returning d when s is empty or invalid.
func AtoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}

// QueryInt64 returns a pointer to the parsed query value, nil when absent.
func QueryInt64(r *http.Request, key string) (*int64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, domain.Invalidf("%s must be an integer", key)
	}
	return &n, nil
}

// QueryBool returns a pointer to the parsed query value, nil when absent.
func QueryBool(r *http.Request, key string) (*bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, domain.Invalidf("%s must be a boolean", key)
	}
	return &b, nil
}

// Page reads limit/offset query values.
func Page(r *http.Request) domain.Page {
	q := r.URL.Query()
	return domain.Page{
		Limit:  AtoiDefault(q.Get("limit"), domain.DefaultPageLimit),
		Offset: AtoiDefault(q.Get("offset"), 0),
	}.Normalize()
}
