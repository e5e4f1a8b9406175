package llm

import "errors"

var ErrMissingAPIKey = errors.New("llm: api key is not set")
