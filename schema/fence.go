package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	fencePrefix = "```json"
	fenceSuffix = "```"
)

var (
	ErrEmptyPayload     = errors.New("empty payload")
	ErrMalformedPayload = errors.New("malformed payload")
)

// EmptyChartPayload is the canonical "no chart" value written when chart generation is skipped.
var EmptyChartPayload = EncodeFenced("{}")

// StripFence removes an optional ```json ... ``` wrapper. Text without a fence is returned trimmed.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, fencePrefix) {
		s = s[len(fencePrefix):]
	} else {
		s = strings.TrimPrefix(s, fenceSuffix)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fenceSuffix)
	return strings.TrimSpace(s)
}

// DecodeFenced strips the fence from text and unmarshals the JSON payload into v.
// Comments and trailing commas in the payload are tolerated.
func DecodeFenced(text string, v any) error {
	payload := StripFence(text)
	if payload == "" {
		return ErrEmptyPayload
	}

	if err := json.Unmarshal(jsonc.ToJSON([]byte(payload)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// EncodeFenced wraps a JSON payload in the fence convention used between stages.
func EncodeFenced(payload string) string {
	return fencePrefix + "\n" + strings.TrimSpace(payload) + "\n" + fenceSuffix
}
