package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/session"
	apierrors "github.com/pribylovaa/photo-sharing/internal/transport/http/errors"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/middleware"
)

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	acc, err := h.Sessions.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		Account: accountFromModel(acc),
		Detail:  "User successfully created. Check your email for confirmation.",
	})
}

// Login принимает JSON {"email","password"} или форму username/password.
// Перед проверкой пароля: неизвестный e-mail и неподтверждённый e-mail — отдельные 401.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	in, ok := readCredentials(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	acc, err := h.Sessions.AccountByIdentity(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, session.ErrAccountNotFound) {
			err = apierrors.ErrUnknownEmail
		}

		apierrors.WriteError(w, r, err)
		return
	}

	if !acc.EmailConfirmed {
		apierrors.WriteError(w, r, apierrors.ErrEmailNotConfirmed)
		return
	}

	pair, err := h.Sessions.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenFromModel(pair))
}

func readCredentials(r *http.Request) (credentialsRequest, bool) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		parse := r.ParseForm
		if strings.HasPrefix(ct, "multipart/form-data") {
			parse = func() error { return r.ParseMultipartForm(multipartMemory) }
		}
		if err := parse(); err != nil {
			return credentialsRequest{}, false
		}

		return credentialsRequest{Email: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}, true
	}

	var in credentialsRequest
	if err := decodeStrict(r, &in); err != nil {
		return credentialsRequest{}, false
	}

	return in, true
}

// RequestEmail отвечает одинаково для известных и неизвестных адресов.
func (h *Handlers) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.Sessions.RequestEmail(r.Context(), in.Email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Check your email for confirmation."})
}

func (h *Handlers) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	already, err := h.Sessions.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if already {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Your email is already confirmed"})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Email confirmed"})
}

// RefreshToken принимает refresh-токен в Authorization: Bearer.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.BearerToken(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	pair, err := h.Sessions.RefreshAccessToken(r.Context(), raw)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenFromModel(pair))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), middleware.AccountFrom(r.Context())); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFrom(r.Context())
	if acc == nil {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	writeJSON(w, http.StatusOK, accountFromModel(acc))
}

func (h *Handlers) Admin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome, admin!"})
}

func (h *Handlers) Moderator(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome, moderator!"})
}

func (h *Handlers) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in roleRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	acc, err := h.Sessions.SetRole(r.Context(), middleware.AccountFrom(r.Context()), id, models.Role(in.Role))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountFromModel(acc))
}
