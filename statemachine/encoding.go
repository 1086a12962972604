package statemachine

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// toUTF8 re-encodes configuration text saved in a legacy charset. Valid UTF-8
// is returned untouched. When detection or decoding fails the input is
// returned as is and the YAML parser reports the problem.
func toUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return data
	}

	reader, err := charset.NewReaderLabel(best.Charset, bytes.NewReader(data))
	if err != nil {
		return data
	}

	decoded, err := io.ReadAll(reader)
	if err != nil || !utf8.Valid(decoded) {
		return data
	}

	return decoded
}
