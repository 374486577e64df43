package convert

import (
	"encoding/base64"
	"net/url"
	"strings"

	"pagestack/internal/pkg/errors"
)

// Source is a normalized submission input: exactly one of URL or Data is set.
type Source struct {
	// URL is the remote document reference (deferred path).
	URL string
	// Data is the decoded inline document payload (inline path).
	Data []byte
}

// Inline reports whether the source carries an inline payload.
func (s Source) Inline() bool {
	return s.URL == ""
}

// ResolveSource validates a submission and normalizes it into a Source.
// Exactly one of rawURL and payload must be provided; the payload must be
// byte-preserving base64 (decoding and re-encoding reproduces the input
// exactly, not merely "decodes without error").
func ResolveSource(rawURL, payload string) (Source, error) {
	// The payload is deliberately not trimmed: acceptance is judged on the
	// submitted string, so surrounding whitespace makes it malformed.
	rawURL = strings.TrimSpace(rawURL)

	hasURL := rawURL != ""
	hasPayload := payload != ""

	switch {
	case !hasURL && !hasPayload:
		return Source{}, errors.Validation("missing input: provide either url or payload")
	case hasURL && hasPayload:
		return Source{}, errors.Validation("conflicting input: url and payload are mutually exclusive")
	}

	if hasURL {
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Source{}, errors.Validation("malformed url: expected an absolute http(s) url")
		}
		return Source{URL: rawURL}, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Source{}, errors.Validation("malformed payload: not valid base64")
	}
	if base64.StdEncoding.EncodeToString(data) != payload {
		return Source{}, errors.Validation("malformed payload: not canonical base64")
	}

	return Source{Data: data}, nil
}
