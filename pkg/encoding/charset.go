// Package encoding converts legacy-encoded scene descriptions to UTF-8.
package encoding

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var charsets = map[string]encoding.Encoding{
	"utf-8":     unicode.UTF8,
	"euc-kr":    korean.EUCKR,
	"cp949":     korean.EUCKR,
	"gbk":       simplifiedchinese.GBK,
	"cp936":     simplifiedchinese.GBK,
	"gb18030":   simplifiedchinese.GB18030,
	"shift-jis": japanese.ShiftJIS,
	"sjis":      japanese.ShiftJIS,
	"euc-jp":    japanese.EUCJP,
	"big5":      traditionalchinese.Big5,
}

// Lookup returns the encoding registered under name. Names are
// case-insensitive and underscores count as dashes; an empty name means UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	switch key {
	case "":
		return unicode.UTF8, nil
	case "utf8":
		key = "utf-8"
	}
	enc, ok := charsets[key]
	if !ok {
		return nil, fmt.Errorf("unknown input encoding %q", name)
	}
	return enc, nil
}

// Names returns the supported encoding names, sorted.
func Names() []string {
	names := make([]string, 0, len(charsets))
	for n := range charsets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ToUTF8 decodes data from the named encoding. A leading UTF-8 byte order
// mark is dropped in every case.
func ToUTF8(data []byte, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	decoder := unicode.BOMOverride(enc.NewDecoder())
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return result, nil
}
