package catalog

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/lysyi3m/quickwatch/app/domain"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode returns the table text. UTF-8 is tried first, ISO-8859-1 once as
// the fallback. Anything that survives neither is an undecodable source.
func decode(source string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(decoded) {
		if err == nil {
			err = fmt.Errorf("fallback produced invalid UTF-8")
		}
		return "", &domain.IngestError{Source: source, Kind: domain.IngestUndecodable, Detail: "utf-8 and latin-1 both failed", Err: err}
	}

	return string(decoded), nil
}
