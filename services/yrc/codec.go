package yrc

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"strings"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// TransportKey is the fixed application key of the word-timed lyric transport.
const TransportKey = "!@#)(*$%123ZXC!@!@#)(NHL"

// Codec decodes word-timed lyric transport envelopes.
type Codec struct {
	key []byte
}

// Option configures a Codec.
type Option func(*Codec)

// WithKey overrides the transport key.
func WithKey(key string) Option {
	return func(c *Codec) {
		c.key = []byte(key)
	}
}

// New returns a Codec using TransportKey unless overridden.
func New(opts ...Option) *Codec {
	c := &Codec{key: []byte(TransportKey)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode runs the full pipeline and returns the formatted word-timed lyrics.
// Any stage failure is logged and yields "".
func (c *Codec) Decode(envelope string) string {
	out, err := c.DecodeStrict(envelope)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			log.Warnf("%s %s stage failed: %v", logcolors.LogYRC, logcolors.Stage(string(se.Stage)), se.Err)
		} else {
			log.Warnf("%s decode failed: %v", logcolors.LogYRC, err)
		}
		return ""
	}
	return out
}

// DecodeStrict runs the pipeline and reports the failing stage as a *StageError.
func (c *Codec) DecodeStrict(envelope string) (string, error) {
	payload, err := ExtractPayload(envelope)
	if err != nil {
		return "", &StageError{Stage: StageEnvelope, Err: err}
	}

	raw := HexDecode(strings.TrimSpace(payload))
	if len(raw) == 0 {
		return "", &StageError{Stage: StageHex, Err: errors.New("empty payload")}
	}
	log.Debugf("%s payload %d hex chars -> %d bytes", logcolors.LogYRC, len(payload), len(raw))

	plain, err := Decrypt(raw, c.key)
	if err != nil {
		return "", &StageError{Stage: StageDecrypt, Err: err}
	}

	inflated, err := Decompress(plain)
	if err != nil {
		return "", &StageError{Stage: StageDecompress, Err: err}
	}

	text, err := ToText(inflated)
	if err != nil {
		return "", &StageError{Stage: StageText, Err: err}
	}

	formatted := FormatLines(ExtractLyric(text))
	if formatted == "" {
		return "", &StageError{Stage: StageFormat, Err: ErrEmptyLyric}
	}
	return formatted, nil
}

// Encode builds the hex payload for a lyric document: zlib, then triple DES,
// then upper-case hex. It is the inverse of the decode stages.
func (c *Codec) Encode(document string) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(document)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	sealed, err := Encrypt(buf.Bytes(), c.key)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(sealed)), nil
}

// Envelope wraps a hex payload in the transport's XML envelope.
func Envelope(payload string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<!-- generated -->` + "\n" +
		`<QrcInfos><content>` + payload + `</content></QrcInfos>`
}
