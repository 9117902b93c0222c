package handlers

import (
	"net/http"
	"strings"

	"github.com/pribylovaa/photo-sharing/internal/photos"
	apierrors "github.com/pribylovaa/photo-sharing/internal/transport/http/errors"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/middleware"
)

// multipartMemory — часть multipart-формы, которая держится в памяти; остальное во временных файлах.
const multipartMemory = 8 << 20

// UploadPhoto: multipart-форма с полями file, description и tags
// (tags можно передать несколько раз или через запятую).
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}
	defer file.Close()

	var tags []string
	for _, v := range r.MultipartForm.Value["tags"] {
		tags = append(tags, strings.Split(v, ",")...)
	}

	p, err := h.Photos.Upload(r.Context(), photos.UploadInput{
		OwnerID:     middleware.AccountFrom(r.Context()).ID,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Description: r.FormValue("description"),
		Tags:        tags,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, photoFromModel(p))
}

func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.Photos.PhotoByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, photoFromModel(p))
}

func (h *Handlers) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in descriptionRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	p, err := h.Photos.UpdateDescription(r.Context(), middleware.AccountFrom(r.Context()).ID, id, in.Description)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, photoFromModel(p))
}

func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Photos.Delete(r.Context(), middleware.AccountFrom(r.Context()).ID, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
