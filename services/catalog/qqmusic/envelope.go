package qqmusic

import (
	"errors"
	"fmt"
	"strings"

	"lyrics-resolver-go/services/catalog"
)

// ErrEnvelopeShape is returned when a lyric reply is neither the expected
// callback-wrapped JSON nor bare JSON.
var ErrEnvelopeShape = errors.New("unexpected lyric envelope shape")

// LyricCallback is the callback name the lyric endpoint wraps its JSON in.
const LyricCallback = "MusicJsonCallback_lrc"

// UnwrapCallback returns the JSON argument of a `callback(...)` reply. A body
// that is already a JSON object is returned unchanged. A trailing semicolon
// after the closing parenthesis is accepted.
func UnwrapCallback(body, callback string) (string, error) {
	body = strings.TrimSpace(body)

	if strings.HasPrefix(body, "{") {
		return body, nil
	}

	if !strings.HasPrefix(body, callback+"(") {
		return "", fmt.Errorf("%w: missing %s wrapper", ErrEnvelopeShape, callback)
	}

	inner := strings.TrimPrefix(body, callback+"(")
	inner = strings.TrimRight(strings.TrimSuffix(inner, ";"), " \t\r\n")
	if !strings.HasSuffix(inner, ")") {
		return "", fmt.Errorf("%w: unterminated %s wrapper", ErrEnvelopeShape, callback)
	}
	return strings.TrimSpace(strings.TrimSuffix(inner, ")")), nil
}

// ParseLyricEnvelope decodes the lyric endpoint's reply into its base64 blobs.
func ParseLyricEnvelope(body string) (*catalog.LyricBlobs, error) {
	payload, err := UnwrapCallback(body, LyricCallback)
	if err != nil {
		return nil, err
	}

	var env lyricEnvelope
	if err := wire.UnmarshalFromString(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelopeShape, err)
	}

	return &catalog.LyricBlobs{
		Synced:     env.Lyric,
		Translated: env.Trans,
	}, nil
}
