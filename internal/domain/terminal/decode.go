package terminal

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	utf8Charset     = "utf-8"
	fallbackCharset = "iso-8859-1"

	// Below this chardet guesses are little better than noise on short lines.
	minDetectConfidence = 50
)

// Decoder turns raw output lines into text without dropping bytes.
type Decoder struct {
	mu       sync.Mutex
	detector *chardet.Detector
}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{detector: chardet.NewTextDetector()}
}

// Decode returns the text of line and the charset it was read as. Valid UTF-8
// passes through; otherwise the detected charset is tried, then ISO-8859-1,
// which maps every byte to a rune.
func (d *Decoder) Decode(line []byte) (string, string, error) {
	if utf8.Valid(line) {
		return string(line), utf8Charset, nil
	}

	if charset, ok := d.detect(line); ok {
		if enc, err := htmlindex.Get(charset); err == nil {
			if text, err := enc.NewDecoder().Bytes(line); err == nil && lossless(line, text) {
				return string(text), charset, nil
			}
		}
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(line)
	if err != nil {
		return "", fallbackCharset, &DecodeError{Charset: fallbackCharset, Err: err}
	}
	return string(text), fallbackCharset, nil
}

// replacement is U+FFFD as UTF-8.
var replacement = []byte(string(utf8.RuneError))

// lossless reports whether decoding raw into text kept every byte: decoders
// substitute U+FFFD for bytes the charset cannot map.
func lossless(raw, text []byte) bool {
	if !utf8.Valid(text) {
		return false
	}
	return !bytes.Contains(text, replacement) || bytes.Contains(raw, replacement)
}

func (d *Decoder) detect(line []byte) (string, bool) {
	d.mu.Lock()
	result, err := d.detector.DetectBest(line)
	d.mu.Unlock()

	if err != nil || result == nil || result.Confidence < minDetectConfidence {
		return "", false
	}

	charset := strings.ToLower(result.Charset)
	// the UTF-8 decoder would replace the invalid bytes
	if charset == utf8Charset {
		return "", false
	}
	return charset, true
}
