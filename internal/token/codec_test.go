package token

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty", []byte{}, ""},
		{"one byte strips padding", []byte("a"), "YQ"},
		{"two bytes strips padding", []byte("ab"), "YWI"},
		{"three bytes no padding", []byte("abc"), "YWJj"},
		{"plus becomes dash", []byte{0xfb, 0xef}, "--8"},
		{"slash becomes underscore", []byte{0xff, 0xff}, "__8"},
		{"header", []byte(`{"alg":"HS256","typ":"JWT"}`), "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.input); got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	inputs := [][]byte{
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		{0xfb, 0xef, 0xff, 0x00, 0x10},
		bytes.Repeat([]byte{0xff}, 32),
	}

	for _, in := range inputs {
		got, err := Decode(Encode(in))
		if err != nil {
			t.Fatalf("Decode(Encode(%x)) failed: %v", in, err)
		}
		if !bytes.Equal(got, in) {
			t.Errorf("Decode(Encode(%x)) = %x", in, got)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"padding", "YQ=="},
		{"standard alphabet plus", "+-8"},
		{"standard alphabet slash", "/_8"},
		{"punctuation", "not-base64!!"},
		{"impossible length", "YWJjZ"},
		{"non utf8", "YW\xffJ"},
		{"whitespace", "YW Jj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}
