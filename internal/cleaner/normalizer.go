// Package cleaner filters and normalizes harvested batches before they
// are persisted: duplicate collapse, date/score windows and text
// normalization, each stage independently toggle-able.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/bbalet/stopwords"
	"github.com/kljensen/snowball"
)

// NormalizerOptions toggles the individual normalization stages.
type NormalizerOptions struct {
	StripURLs         bool
	StripSpecialChars bool
	StripNumbers      bool
	StripStopwords    bool
	Lowercase         bool
	Stem              bool
	Lemmatize         bool
	// Language is the snowball/stopword language, e.g. "english".
	// Defaults to english.
	Language string
}

// Normalizer applies the configured stages to a single text value.
// Empty input yields the empty string.
type Normalizer struct {
	opts       NormalizerOptions
	langCode   string
	lemmatizer *golem.Lemmatizer
}

var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	specialPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	numberPattern  = regexp.MustCompile(`\d+`)
)

// ISO codes for the stopword corpus, keyed by snowball language name.
var langCodes = map[string]string{
	"english": "en",
	"french":  "fr",
	"german":  "de",
	"spanish": "es",
	"russian": "ru",
}

// NewNormalizer validates the options and loads the lemmatizer dictionary
// when lemmatization is requested. Only the english dictionary is bundled.
func NewNormalizer(opts NormalizerOptions) (*Normalizer, error) {
	if opts.Language == "" {
		opts.Language = "english"
	}
	code, ok := langCodes[opts.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", opts.Language)
	}
	n := &Normalizer{opts: opts, langCode: code}
	if opts.Lemmatize {
		if opts.Language != "english" {
			return nil, fmt.Errorf("lemmatization supports english only, got %q", opts.Language)
		}
		lemmatizer, err := golem.New(en.New())
		if err != nil {
			return nil, fmt.Errorf("loading lemmatizer dictionary: %w", err)
		}
		n.lemmatizer = lemmatizer
	}
	return n, nil
}

// Normalize runs the enabled stages in a fixed order: URLs, case folding,
// special characters, numbers, stopwords, then per-token stemming and
// lemmatization. Output tokens are joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	if n.opts.StripURLs {
		text = urlPattern.ReplaceAllString(text, "")
	}
	if n.opts.Lowercase {
		text = strings.ToLower(text)
	}
	if n.opts.StripSpecialChars {
		text = specialPattern.ReplaceAllString(text, "")
	}
	if n.opts.StripNumbers {
		text = numberPattern.ReplaceAllString(text, "")
	}
	if n.opts.StripStopwords {
		text = stopwords.CleanString(text, n.langCode, false)
	}
	tokens := strings.Fields(text)
	if n.opts.Stem {
		for i, token := range tokens {
			if stemmed, err := snowball.Stem(token, n.opts.Language, false); err == nil {
				tokens[i] = stemmed
			}
		}
	}
	if n.opts.Lemmatize && n.lemmatizer != nil {
		for i, token := range tokens {
			tokens[i] = n.lemmatizer.Lemma(token)
		}
	}
	return strings.Join(tokens, " ")
}
