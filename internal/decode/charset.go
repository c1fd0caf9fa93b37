package decode

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

const utf8BOM = "\ufeff"

// toUTF8 converts payload from the named charset and strips a leading
// byte order mark and surrounding whitespace.
func toUTF8(payload []byte, charset string) (string, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))

	var text string
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		if !utf8.Valid(payload) {
			return "", eris.New("payload is not valid utf-8")
		}
		text = string(payload)
	} else {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", eris.Wrapf(err, "unsupported charset %q", charset)
		}
		out, err := enc.NewDecoder().Bytes(payload)
		if err != nil {
			return "", eris.Wrapf(err, "decode %s payload", charset)
		}
		text = string(out)
	}

	text = strings.TrimPrefix(text, utf8BOM)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", eris.New("empty payload")
	}
	return text, nil
}
