// hasher хэширует и проверяет пароли. Экземпляр создаётся один раз при старте
// и передаётся в сервисы явно; реализации не имеют изменяемого состояния.
package hasher

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/photo-sharing/internal/config"
)

// ErrUnknownAlgorithm — в конфигурации указан неизвестный алгоритм.
var ErrUnknownAlgorithm = errors.New("unknown password hasher")

// Hasher — контракт хэширования паролей.
type Hasher interface {
	// Hash возвращает хэш секрета в самоописывающем формате.
	Hash(secret string) (string, error)
	// Verify сравнивает секрет с хэшем. Некорректный хэш даёт false.
	Verify(secret, hash string) bool
}

// New выбирает реализацию по cfg.PasswordHasher.
func New(cfg config.AuthConfig) (Hasher, error) {
	const op = "hasher.New"

	switch strings.ToLower(cfg.PasswordHasher) {
	case "", config.HasherBcrypt:
		return NewBcrypt(cfg.BcryptCost), nil
	case config.HasherArgon2id:
		return NewArgon2id(DefaultArgon2idParams), nil
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownAlgorithm, cfg.PasswordHasher)
	}
}

// Bcrypt — реализация на golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt создаёт Bcrypt; cost вне [MinCost, MaxCost] заменяется на DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(secret string) (string, error) {
	const op = "hasher.Bcrypt.Hash"

	h, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(h), nil
}

func (b *Bcrypt) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
