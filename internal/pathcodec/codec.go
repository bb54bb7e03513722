package pathcodec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// OS identifies which operating system's encoding a path blob used. Sets do
// not record their origin OS anywhere, so this is inferred per blob.
type OS int

const (
	OSUnknown OS = iota
	OSMac
	OSWindows
)

func (o OS) String() string {
	switch o {
	case OSMac:
		return "macos"
	case OSWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// structHeaderLen is the fixed length-prefix header on macOS blobs; the
// payload scan starts immediately after it.
const structHeaderLen = 6

// Decode converts a hex-decoded path blob into an absolute path string and
// reports which OS encoding was detected. Blobs beginning with three zero
// bytes carry the macOS header; everything else is treated as Windows
// UTF-16. Adversarial input can misclassify, which mirrors how Live itself
// distinguishes the formats.
func Decode(data []byte) (string, OS, error) {
	if len(data) == 0 {
		return "", OSUnknown, errors.New("empty path data")
	}
	if len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 0 {
		path, err := decodeStruct(data)
		if err != nil {
			return "", OSMac, err
		}
		return path, OSMac, nil
	}
	path, err := decodeUTF16(data)
	if err != nil {
		return "", OSWindows, err
	}
	return path, OSWindows, nil
}

// decodeStruct scans the macOS chunked layout: length-byte, payload, NUL,
// with 0x00/0xFF padding interspersed. A candidate segment is accepted only
// when its end offset is in bounds, the payload contains no NUL, and a NUL
// terminator follows. The decoded path is the final segment (volume root)
// followed by the segment before it (subpath), in that order.
func decodeStruct(data []byte) (string, error) {
	last := len(data) - 1
	var segments [][]byte
	i := structHeaderLen
	for i <= last {
		if data[i] == 0x00 || data[i] == 0xFF {
			i++
			continue
		}
		length := int(data[i])
		end := i + length + 1
		if end < last && !containsZero(data[i+1:end]) && data[end] == 0 {
			segments = append(segments, data[i+1:end])
			i = end + 1
			continue
		}
		i++
	}
	if len(segments) < 2 {
		return "", fmt.Errorf("found %d path segments, need at least 2", len(segments))
	}
	volume := segments[len(segments)-1]
	subpath := segments[len(segments)-2]
	if !utf8.Valid(volume) || !utf8.Valid(subpath) {
		return "", errors.New("path segment is not valid text")
	}
	return string(volume) + string(subpath), nil
}

// decodeUTF16 handles the Windows layout: UTF-16 text with embedded NUL
// terminators that are stripped from the result.
func decodeUTF16(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("utf-16 data has odd length %d", len(data))
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	decoded, err := decoder.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", errors.New("utf-16 data contains invalid sequences")
	}
	return strings.ReplaceAll(text, "\x00", ""), nil
}

// EncodeLegacy produces the hex string written back into a pre-11 Data
// element for an absolute path: each UTF-8 byte as two uppercase hex digits
// followed by "00", closed with an extra "0000" terminator. This emulates
// UTF-16 spacing byte-for-byte and is only faithful for ASCII-range paths;
// non-ASCII behavior is inherited from the sets Live itself writes.
func EncodeLegacy(path string) string {
	var b strings.Builder
	b.Grow(len(path)*4 + 4)
	for _, c := range []byte(path) {
		fmt.Fprintf(&b, "%02X00", c)
	}
	b.WriteString("0000")
	return b.String()
}

// DecodeHexText strips layout whitespace from a raw XML data block and
// decodes the remaining hex digits.
func DecodeHexText(text string) ([]byte, error) {
	cleaned := strings.NewReplacer("\t", "", " ", "", "\n", "", "\r", "").Replace(text)
	if cleaned == "" {
		return nil, errors.New("no hex data in text")
	}
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return data, nil
}

func containsZero(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}
