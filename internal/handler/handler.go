package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tempiaops/internal/apperror"
	"tempiaops/internal/auth"
	"tempiaops/internal/domain"
)

const maxJSONBody = 1 << 20

func sessionOf(r *http.Request) *domain.Session {
	return auth.SessionFrom(r.Context())
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.CodeInvalid, "invalid "+name)
	}
	return id, nil
}

func buildingNumber(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		return 0, apperror.New(apperror.CodeInvalid, "invalid building number")
	}
	return n, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalid, "invalid request body")
	}
	return nil
}
