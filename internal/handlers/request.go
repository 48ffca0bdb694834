package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"kawanumkm/internal/service"
	"kawanumkm/internal/validation"
)

// decodeJSON reads a JSON request body into dst. An empty or malformed body
// is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return validation.ValidationError{Field: "body", Message: "no data provided"}
	case errors.As(err, &maxErr):
		return validation.ValidationError{Field: "body", Message: "request body too large"}
	default:
		return validation.ValidationError{Field: "body", Message: "invalid JSON"}
	}
}

// pathID parses a numeric path parameter. Non-numeric ids cannot name a
// record, so they are reported as not found.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, r.PathValue(name), service.ErrNotFound)
	}
	return id, nil
}
