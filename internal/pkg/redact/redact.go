// redact маскирует чувствительные значения перед записью в лог.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local := []rune(parts[0])
	if len(local) > 2 {
		return string(local[:2]) + "***@" + parts[1]
	}

	return "***@" + parts[1]
}

// Token возвращает короткий отпечаток токена: по нему можно сопоставить
// записи в логе, но нельзя восстановить сам токен.
func Token(s string) string {
	if s == "" {
		return "[EMPTY_TOKEN]"
	}

	sum := sha256.Sum256([]byte(s))

	return "tok:" + hex.EncodeToString(sum[:4])
}

func Password() string { return "[REDACTED_PASSWORD]" }
