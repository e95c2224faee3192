package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "HELLO World", "hello world"},
		{"strip url", "see https://example.com/path for more", "see for more"},
		{"strip tags", "<p>Hello <b>World</b></p>", "hello world"},
		{"collapse punctuation", "wow!!!! really???", "wow really"},
		{"collapse whitespace", "a   b\t\tc", "a b c"},
		{"keep cyrillic", "Привет мир", "привет мир"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize(Normalize("The Quick, Brown Fox2 a Привет"))
	assert.Equal(t, []string{"the", "quick", "brown", "fox2", "привет"}, tokens)
}
