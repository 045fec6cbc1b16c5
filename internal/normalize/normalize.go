// Package normalize canonicalizes user secrets before they reach the KDF,
// so that equivalent keystrokes on any platform derive the same key.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

// Secret normalizes a user-entered PIN or recovery phrase: Unicode
// canonical composition (NFC), trimmed of leading/trailing whitespace,
// with interior whitespace preserved exactly. Empty or whitespace-only
// input is rejected.
func Secret(s string) ([]byte, error) {
	composed := norm.NFC.String(s)
	trimmed := strings.TrimSpace(composed)
	if trimmed == "" {
		return nil, vaulterr.New("normalize.Secret", vaulterr.InvalidInput, errEmptySecret)
	}
	return []byte(trimmed), nil
}
