package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tempiaops/internal/apperror"
	"tempiaops/internal/respond"
	"tempiaops/internal/service"
)

type FdvHandler struct {
	fdv         *service.FdvService
	maxUploadMB int64
}

func NewFdvHandler(fdv *service.FdvService, maxUploadMB int64) *FdvHandler {
	return &FdvHandler{fdv: fdv, maxUploadMB: maxUploadMB}
}

func (h *FdvHandler) List(w http.ResponseWriter, r *http.Request) {
	number, err := buildingNumber(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	files, err := h.fdv.List(r.Context(), sessionOf(r), number)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, files)
}

// Upload accepts multipart form data with a "file" part and optional
// comma-separated "tags".
func (h *FdvHandler) Upload(w http.ResponseWriter, r *http.Request) {
	number, err := buildingNumber(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	limit := h.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, apperror.New(apperror.CodeInvalid, fmt.Sprintf("file exceeds %d MB", h.maxUploadMB)))
			return
		}
		respond.Error(w, r, apperror.Wrap(err, apperror.CodeInvalid, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperror.New(apperror.CodeInvalid, "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respond.Error(w, r, apperror.Wrap(err, apperror.CodeInvalid, "failed to read file"))
		return
	}
	if int64(len(data)) > limit {
		respond.Error(w, r, apperror.New(apperror.CodeInvalid, fmt.Sprintf("file exceeds %d MB", h.maxUploadMB)))
		return
	}

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	created, err := h.fdv.Upload(r.Context(), sessionOf(r), number, service.FdvUpload{
		FileName: header.Filename,
		Data:     data,
		Tags:     tags,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *FdvHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	url, err := h.fdv.SignedURL(r.Context(), sessionOf(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, url)
}

func (h *FdvHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	img, err := h.fdv.Preview(r.Context(), sessionOf(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *FdvHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.fdv.Delete(r.Context(), sessionOf(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
