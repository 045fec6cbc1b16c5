package normalize

import "errors"

var errEmptySecret = errors.New("secret is empty or whitespace-only")
