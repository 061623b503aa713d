package yrc

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Stage names one step of the decode pipeline.
type Stage string

const (
	StageEnvelope   Stage = "envelope"
	StageHex        Stage = "hex"
	StageDecrypt    Stage = "decrypt"
	StageDecompress Stage = "decompress"
	StageText       Stage = "text"
	StageFormat     Stage = "format"
)

// StageError reports which stage of the pipeline failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return "yrc " + string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

var (
	ErrNoPayload   = errors.New("envelope carries no content or contentts element")
	ErrBlockSize   = errors.New("ciphertext is not a whole number of blocks")
	ErrPadding     = errors.New("invalid block padding")
	ErrDecompress  = errors.New("payload is not zlib, raw deflate or gzip")
	ErrInvalidUTF8 = errors.New("decompressed payload is not valid UTF-8")
	ErrEmptyLyric  = errors.New("no lyric lines after formatting")
)

var (
	xmlComment       = regexp.MustCompile(`(?s)<!--.*?-->`)
	contentElement   = regexp.MustCompile(`<content>([^<]+)</content>`)
	contentTSElement = regexp.MustCompile(`<contentts>([^<]+)</contentts>`)

	lyricContentAttr = regexp.MustCompile(`LyricContent="([^"]+)"`)
	lyricElement     = regexp.MustCompile(`(?is)<lyric[^>]*>(.*?)</lyric>`)
	cdataSection     = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
)

// ExtractPayload strips XML comments from a transport envelope and returns the
// hex payload of its content element, falling back to contentts.
func ExtractPayload(envelope string) (string, error) {
	envelope = xmlComment.ReplaceAllString(envelope, "")

	if m := contentElement.FindStringSubmatch(envelope); m != nil {
		return m[1], nil
	}
	if m := contentTSElement.FindStringSubmatch(envelope); m != nil {
		return m[1], nil
	}
	return "", ErrNoPayload
}

// HexDecode converts a hex string two digits at a time. A pair that is not
// valid hex decodes to 0. A trailing single digit is decoded on its own.
func HexDecode(s string) []byte {
	out := make([]byte, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		out = append(out, parseHexByte(s[i:end]))
	}
	return out
}

func parseHexByte(pair string) byte {
	var v byte
	for i := 0; i < len(pair); i++ {
		n, ok := hexNibble(pair[i])
		if !ok {
			return 0
		}
		v = v<<4 | n
	}
	return v
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// cipherKey zero-pads or truncates key to the triple DES key length.
func cipherKey(key []byte) []byte {
	k := make([]byte, 24)
	copy(k, key)
	return k
}

// Decrypt runs triple DES in ECB mode over data and strips PKCS#7 padding.
func Decrypt(data, key []byte) ([]byte, error) {
	block, err := des.NewTripleDESCipher(cipherKey(key))
	if err != nil {
		return nil, err
	}

	bs := block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, ErrBlockSize
	}

	out := make([]byte, len(data))
	ecb(block, out, data, block.Decrypt)
	return unpad(out, bs)
}

// Encrypt pads data with PKCS#7 and runs triple DES in ECB mode over it.
func Encrypt(data, key []byte) ([]byte, error) {
	block, err := des.NewTripleDESCipher(cipherKey(key))
	if err != nil {
		return nil, err
	}

	bs := block.BlockSize()
	n := bs - len(data)%bs
	padded := append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)

	out := make([]byte, len(padded))
	ecb(block, out, padded, block.Encrypt)
	return out, nil
}

func ecb(block cipher.Block, dst, src []byte, fn func(dst, src []byte)) {
	bs := block.BlockSize()
	for i := 0; i < len(src); i += bs {
		fn(dst[i:i+bs], src[i:i+bs])
	}
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrPadding
		}
	}
	return data[:len(data)-n], nil
}

// Decompress tries zlib, then raw deflate, then gzip. The first that reads the
// whole stream without error wins.
func Decompress(data []byte) ([]byte, error) {
	openers := []struct {
		name string
		open func(io.Reader) (io.ReadCloser, error)
	}{
		{"zlib", zlib.NewReader},
		{"deflate", func(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil }},
		{"gzip", func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }},
	}

	var errs []string
	for _, o := range openers {
		out, err := readAll(o.open, data)
		if err == nil {
			return out, nil
		}
		errs = append(errs, o.name+": "+err.Error())
	}
	return nil, fmt.Errorf("%w (%s)", ErrDecompress, strings.Join(errs, "; "))
}

func readAll(open func(io.Reader) (io.ReadCloser, error), data []byte) ([]byte, error) {
	r, err := open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ToText validates that b is UTF-8 and returns it as a string.
func ToText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// ExtractLyric pulls the lyric body out of an XML document, preferring the
// LyricContent attribute, then a lyric element, then a CDATA section. Text
// that is not XML, or XML with none of those, is returned as is.
func ExtractLyric(text string) string {
	if !strings.Contains(text, "<?xml") && !strings.Contains(text, "<lyric") {
		return text
	}

	for _, re := range []*regexp.Regexp{lyricContentAttr, lyricElement, cdataSection} {
		if m := re.FindStringSubmatch(text); m != nil && m[1] != "" {
			return m[1]
		}
	}
	return text
}

// FormatLines trims every line, drops empty ones and joins the rest with "\n".
func FormatLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
