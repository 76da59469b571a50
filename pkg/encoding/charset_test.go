package encoding

import (
	"bytes"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8", "EUC_KR", "gbk", "Shift-JIS", "big5"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}
	if _, err := Lookup("klingon"); err == nil {
		t.Error("Lookup(klingon) should fail")
	}
}

func TestToUTF8(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		in      []byte
		want    string
	}{
		{"ascii passthrough", "", []byte("hero_mesh"), "hero_mesh"},
		{"bom dropped", "utf-8", []byte("\xef\xbb\xbfname"), "name"},
		{"euc-kr", "euc-kr", []byte{0xb0, 0xa1}, "가"},
		{"gbk", "gbk", []byte{0xc4, 0xe3, 0xba, 0xc3}, "你好"},
		{"shift-jis", "shift-jis", []byte{0x82, 0xa0}, "あ"},
		{"big5", "big5", []byte{0xa4, 0xa4}, "中"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTF8(tt.in, tt.charset)
			if err != nil {
				t.Fatalf("ToUTF8() error = %v", err)
			}
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("ToUTF8() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToUTF8_UnknownEncoding(t *testing.T) {
	if _, err := ToUTF8([]byte("x"), "ebcdic"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(charsets) {
		t.Fatalf("Names() returned %d entries, want %d", len(names), len(charsets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Names() not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
}
