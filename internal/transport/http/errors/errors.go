// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает доменную ошибку (sentinel-значения пакетов session, rolegate,
// photos, comments), на выход даёт:
//   - HTTP-статус;
//   - короткий стабильный code и безопасное message без деталей.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/photo-sharing/internal/comments"
	"github.com/pribylovaa/photo-sharing/internal/photos"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	"github.com/pribylovaa/photo-sharing/internal/session"
)

// Нестандартный код «клиент закрыл соединение».
const StatusClientClosedRequest = 499

// Ошибки уровня маршрутов.
var (
	// ErrBadRequest — тело или параметры запроса не разобраны.
	ErrBadRequest = stderrors.New("invalid argument")
	// ErrUnauthenticated — нет Bearer-токена.
	ErrUnauthenticated = stderrors.New("not authenticated")
	// ErrUnknownEmail — вход с неизвестным e-mail.
	ErrUnknownEmail = stderrors.New("invalid email")
	// ErrEmailNotConfirmed — вход до подтверждения e-mail.
	ErrEmailNotConfirmed = stderrors.New("email not confirmed")
)

// APIError — единый формат ошибки для клиента.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект ответа.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type rule struct {
	target  error
	status  int
	code    string
	message string
}

// Порядок важен: первая совпавшая причина определяет ответ.
// Ошибки подтверждения e-mail оборачивают причины уровня токена, поэтому идут раньше них.
var rules = []rule{
	{session.ErrUnprocessableToken, http.StatusUnprocessableEntity, "unprocessable_token", "invalid token for email verification"},
	{session.ErrVerificationFailed, http.StatusBadRequest, "verification_error", "verification error"},

	{session.ErrTokenExpired, http.StatusUnauthorized, "token_expired", "token expired"},
	{session.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token"},
	{session.ErrScopeMismatch, http.StatusUnauthorized, "invalid_scope", "invalid scope for token"},
	{session.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "could not validate credentials"},
	{session.ErrInvalidToken, http.StatusUnauthorized, "invalid_credentials", "could not validate credentials"},
	{session.ErrLoginFailed, http.StatusUnauthorized, "login_failed", "invalid credentials"},
	{ErrUnknownEmail, http.StatusUnauthorized, "invalid_email", "invalid email"},
	{ErrEmailNotConfirmed, http.StatusUnauthorized, "email_not_confirmed", "email not confirmed"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "not authenticated"},

	{rolegate.ErrForbidden, http.StatusForbidden, "forbidden", "operation not permitted"},

	{session.ErrUsernameTaken, http.StatusConflict, "already_exists", "account already exists"},

	{session.ErrInvalidIdentity, http.StatusBadRequest, "invalid_email", "invalid email"},
	{session.ErrEmptySecret, http.StatusBadRequest, "invalid_argument", "password is empty"},
	{session.ErrInvalidRole, http.StatusBadRequest, "invalid_argument", "invalid role"},
	{photos.ErrTooManyTags, http.StatusBadRequest, "invalid_argument", "too many tags"},
	{photos.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{comments.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{ErrBadRequest, http.StatusBadRequest, "invalid_argument", "invalid argument"},

	{session.ErrAccountNotFound, http.StatusNotFound, "not_found", "account not found"},
	{photos.ErrNotFound, http.StatusNotFound, "not_found", "photo not found"},
	{comments.ErrPhotoNotFound, http.StatusNotFound, "not_found", "photo not found"},
	{comments.ErrNotFound, http.StatusNotFound, "not_found", "comment not found"},

	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и тело ответа.
// err == nil — ошибка вызова, отвечаем 500, чтобы не маскировать баг под 200.
func ToHTTP(err error) (int, ErrorResponse) {
	if err != nil {
		for _, r := range rules {
			if stderrors.Is(err, r.target) {
				return r.status, ErrorResponse{Error: APIError{Code: r.code, Message: r.message}}
			}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError пишет статус и тело, добавляет request_id из заголовка X-Request-Id.
// Для 401 выставляет WWW-Authenticate: Bearer.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
