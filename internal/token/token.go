// token выпускает и разбирает подписанные JWT (HS256) трёх видов:
// access, refresh и неадресные токены подтверждения e-mail.
//
// Основные аспекты:
//   - Codec не хранит состояния между вызовами и безопасен для конкурентного использования;
//   - Decode проверяет подпись и структуру, но НЕ срок действия: истёкший токен
//     возвращается вызывающему, который сам сравнивает ExpiresAt с текущим временем;
//   - отсутствие любого из полей sub/iat/exp делает токен невалидным.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/config"
)

var (
	// ErrInvalidToken — подпись, алгоритм, формат или обязательные поля токена некорректны.
	ErrInvalidToken = errors.New("invalid token")
	// ErrScopeMismatch — токен валиден, но выпущен для другого назначения.
	ErrScopeMismatch = errors.New("token scope mismatch")
	// ErrUnknownScope — попытка выпустить токен с неизвестным scope.
	ErrUnknownScope = errors.New("unknown token scope")
	// ErrEmptySubject — попытка выпустить токен без subject.
	ErrEmptySubject = errors.New("empty token subject")
)

// Scope — назначение токена.
type Scope string

const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
)

// Valid сообщает, является ли scope одним из сессионных.
func (s Scope) Valid() bool {
	return s == ScopeAccess || s == ScopeRefresh
}

// Token — разобранное содержимое токена.
type Token struct {
	ID        string
	Subject   string
	Scope     Scope
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired — true, если ExpiresAt <= now.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

type claims struct {
	Scope Scope `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Codec выпускает и проверяет токены одним симметричным ключом.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	clock      clock.Clock
	parser     *jwt.Parser
}

// New создаёт Codec по параметрам AuthConfig.
func New(cfg config.AuthConfig, clk clock.Clock) *Codec {
	if clk == nil {
		clk = clock.Real{}
	}

	return &Codec{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		emailTTL:   cfg.EmailTokenTTL,
		clock:      clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// TTL возвращает срок жизни по умолчанию для scope.
func (c *Codec) TTL(scope Scope) time.Duration {
	switch scope {
	case ScopeAccess:
		return c.accessTTL
	case ScopeRefresh:
		return c.refreshTTL
	default:
		return c.emailTTL
	}
}

// Issue выпускает сессионный токен со сроком жизни по умолчанию для scope.
func (c *Codec) Issue(subject string, scope Scope) (string, Token, error) {
	return c.IssueWithTTL(subject, scope, c.TTL(scope))
}

// IssueWithTTL выпускает сессионный токен с явным сроком жизни.
// Отрицательный ttl допустим и даёт заведомо истёкший токен.
func (c *Codec) IssueWithTTL(subject string, scope Scope, ttl time.Duration) (string, Token, error) {
	const op = "token.Codec.IssueWithTTL"

	if !scope.Valid() {
		return "", Token{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownScope, scope)
	}

	s, t, err := c.sign(subject, scope, ttl)
	if err != nil {
		return "", Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return s, t, nil
}

// IssueEmail выпускает токен подтверждения e-mail (без scope).
func (c *Codec) IssueEmail(subject string) (string, Token, error) {
	const op = "token.Codec.IssueEmail"

	s, t, err := c.sign(subject, "", c.emailTTL)
	if err != nil {
		return "", Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return s, t, nil
}

// Decode проверяет подпись и структуру сессионного токена.
// Срок действия не проверяется.
func (c *Codec) Decode(raw string) (Token, error) {
	const op = "token.Codec.Decode"

	t, err := c.parse(raw)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	if !t.Scope.Valid() {
		return Token{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return t, nil
}

// DecodeScoped — Decode с проверкой ожидаемого scope.
func (c *Codec) DecodeScoped(raw string, want Scope) (Token, error) {
	const op = "token.Codec.DecodeScoped"

	t, err := c.Decode(raw)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.Scope != want {
		return Token{}, fmt.Errorf("%s: %w: got %q, want %q", op, ErrScopeMismatch, t.Scope, want)
	}

	return t, nil
}

// DecodeEmail разбирает токен подтверждения e-mail.
// Сессионный токен здесь отвергается с ErrScopeMismatch.
func (c *Codec) DecodeEmail(raw string) (Token, error) {
	const op = "token.Codec.DecodeEmail"

	t, err := c.parse(raw)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.Scope != "" {
		return Token{}, fmt.Errorf("%s: %w: got %q", op, ErrScopeMismatch, t.Scope)
	}

	return t, nil
}

func (c *Codec) sign(subject string, scope Scope, ttl time.Duration) (string, Token, error) {
	if subject == "" {
		return "", Token{}, ErrEmptySubject
	}

	now := c.clock.Now().UTC().Truncate(jwt.TimePrecision)
	t := Token{
		ID:        uuid.NewString(),
		Subject:   subject,
		Scope:     scope,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl).Truncate(jwt.TimePrecision),
	}

	cl := claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID,
			Subject:   t.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", Token{}, err
	}

	return signed, t, nil
}

func (c *Codec) parse(raw string) (Token, error) {
	if raw == "" {
		return Token{}, ErrInvalidToken
	}

	var cl claims
	parsed, err := c.parser.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Token{}, ErrInvalidToken
	}

	if cl.Subject == "" || cl.IssuedAt == nil || cl.ExpiresAt == nil || cl.Issuer != c.issuer {
		return Token{}, ErrInvalidToken
	}

	return Token{
		ID:        cl.ID,
		Subject:   cl.Subject,
		Scope:     cl.Scope,
		IssuedAt:  cl.IssuedAt.UTC(),
		ExpiresAt: cl.ExpiresAt.UTC(),
	}, nil
}
