package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNormalizer(t *testing.T, opts NormalizerOptions) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(opts)
	require.NoError(t, err)
	return n
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{Lowercase: true, StripURLs: true})
	assert.Equal(t, "", n.Normalize(""))
}

func TestNormalizeStripURLs(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{StripURLs: true})
	assert.Equal(t, "check this now", n.Normalize("check this https://example.com/a?b=c now"))
	assert.Equal(t, "see", n.Normalize("see www.example.com"))
}

func TestNormalizeLowercase(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{Lowercase: true})
	assert.Equal(t, "hello world", n.Normalize("Hello WORLD"))
}

func TestNormalizeStripSpecialChars(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{StripSpecialChars: true})
	assert.Equal(t, "its a testcase", n.Normalize("it's a test-case!"))
}

func TestNormalizeStripNumbers(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{StripNumbers: true})
	assert.Equal(t, "version released", n.Normalize("version 124 released"))
}

func TestNormalizeStopwords(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{Lowercase: true, StripStopwords: true})
	out := n.Normalize("The cat sat on the mat")
	tokens := strings.Fields(out)
	assert.NotContains(t, tokens, "the")
	assert.Contains(t, tokens, "cat")
	assert.Contains(t, tokens, "mat")
}

func TestNormalizeStemming(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{Lowercase: true, Stem: true})
	assert.Equal(t, "run jump", n.Normalize("running jumped"))
}

func TestNormalizeIdempotent(t *testing.T) {
	// lowercase/strip stages are idempotent; stemming is not guaranteed
	n := newNormalizer(t, NormalizerOptions{
		StripURLs:         true,
		StripSpecialChars: true,
		StripNumbers:      true,
		Lowercase:         true,
	})
	inputs := []string{
		"Check https://example.com NOW!",
		"Already normalized text",
		"Numbers 42 and SYMBOLS #$%",
	}
	for _, input := range inputs {
		once := n.Normalize(input)
		assert.Equal(t, once, n.Normalize(once), "input: %q", input)
	}
}

func TestNormalizeUnsupportedLanguage(t *testing.T) {
	_, err := NewNormalizer(NormalizerOptions{Language: "klingon"})
	require.Error(t, err)
}

func TestNormalizeLemmatizeEnglishOnly(t *testing.T) {
	_, err := NewNormalizer(NormalizerOptions{Lemmatize: true, Language: "french"})
	require.Error(t, err)
}

func TestNormalizeLemmatize(t *testing.T) {
	n := newNormalizer(t, NormalizerOptions{Lowercase: true, Lemmatize: true})
	out := n.Normalize("smaller cars")
	assert.NotEmpty(t, out)
}
