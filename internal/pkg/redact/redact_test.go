package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEmail_Table — табличные тесты на маскирование e-mail.
func TestEmail_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii_local_gt_2", in: "foobar@example.com", want: "fo***@example.com"},
		{name: "ascii_local_len_2", in: "ab@ex.com", want: "***@ex.com"},
		{name: "no_at", in: "no-at-here", want: "***"},
		{name: "multiple_at", in: "a@b@c", want: "***"},
		{name: "empty", in: "", want: "***"},
		{name: "unicode_local", in: "юзер@пример.рф", want: "юз***@пример.рф"},
		{name: "empty_local", in: "@domain", want: "***@domain"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Email(tt.in))
		})
	}
}

// TestToken_Fingerprint — отпечаток стабилен, не содержит исходной строки.
func TestToken_Fingerprint(t *testing.T) {
	t.Parallel()

	const tok = "eyJhbGciOiJIUzI1NiJ9.payload.signature"

	a := Token(tok)
	require.Equal(t, a, Token(tok))
	require.True(t, strings.HasPrefix(a, "tok:"))
	require.Len(t, a, len("tok:")+8)
	require.NotContains(t, a, "payload")
	require.NotEqual(t, a, Token(tok+"x"))
	require.Equal(t, "[EMPTY_TOKEN]", Token(""))
}

func TestPassword_Literal(t *testing.T) {
	t.Parallel()
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
