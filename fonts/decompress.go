package fonts

import (
	"encoding/binary"
	"errors"
	"fmt"

	tdfont "github.com/tdewolff/font"
)

// Format identifies a font container.
type Format string

const (
	FormatUnknown  Format = ""
	FormatTrueType Format = "ttf"
	FormatOpenType Format = "otf"
	FormatWOFF     Format = "woff"
	FormatWOFF2    Format = "woff2"
	FormatEOT      Format = "eot"
)

// ErrUnsupportedFormat is returned for data that is not a recognised font
// container.
var ErrUnsupportedFormat = errors.New("unsupported font format")

// DetectFormat sniffs the container type from the leading bytes.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch string(data[:4]) {
	case "wOF2":
		return FormatWOFF2
	case "wOFF":
		return FormatWOFF
	case "OTTO":
		return FormatOpenType
	case "true", "\x00\x01\x00\x00":
		return FormatTrueType
	}
	// EOT carries its magic number 0x504C at byte 34, little endian.
	if len(data) >= 36 && binary.LittleEndian.Uint16(data[34:36]) == 0x504C {
		return FormatEOT
	}
	return FormatUnknown
}

// Decompress converts WOFF, WOFF2 and EOT containers into plain SFNT bytes.
// TrueType and OpenType data is returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	switch DetectFormat(data) {
	case FormatTrueType, FormatOpenType:
		return data, nil
	case FormatWOFF, FormatWOFF2, FormatEOT:
		out, err := tdfont.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("decompress font: %w", err)
		}
		return out, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
