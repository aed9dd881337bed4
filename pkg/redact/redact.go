// Package redact masks personally identifiable information in free text.
//
// Recognizers run in a fixed order and each one matches against the text as
// already masked by its predecessors, so an earlier kind can pre-empt a later,
// overlapping one (a card number is never also reported as an account number).
package redact

import (
	"fmt"
	"strings"
	"sync"
)

// Kind labels a category of PII.
type Kind string

const (
	KindSSN     Kind = "SSN"
	KindCard    Kind = "CARD"
	KindPhone   Kind = "PHONE"
	KindEmail   Kind = "EMAIL"
	KindAccount Kind = "ACCOUNT"
)

// DefaultMaskChar replaces masked characters.
const DefaultMaskChar = '*'

// keep is the number of trailing characters left visible in a masked span.
const keep = 4

// Matches maps each PII kind to the substrings it matched, in match order.
type Matches map[Kind][]string

// Redactor masks PII spans. It is immutable and safe for concurrent use.
type Redactor struct {
	recognizers []recognizer
	mask        rune
}

// Option configures a Redactor.
type Option func(*config)

type config struct {
	mask     rune
	replace  []RecognizerConfig
	extra    []RecognizerConfig
	filePath string
}

// WithMaskChar overrides the mask character.
func WithMaskChar(r rune) Option {
	return func(c *config) { c.mask = r }
}

// WithRecognizers replaces the embedded recognizers entirely.
func WithRecognizers(recs []RecognizerConfig) Option {
	return func(c *config) { c.replace = recs }
}

// WithExtraRecognizers appends recognizers after the defaults.
func WithExtraRecognizers(recs []RecognizerConfig) Option {
	return func(c *config) { c.extra = append(c.extra, recs...) }
}

// WithRecognizerFile appends recognizers loaded from a YAML file.
// A missing file is silently skipped.
func WithRecognizerFile(path string) Option {
	return func(c *config) { c.filePath = path }
}

// New creates a Redactor. Without options it uses the embedded defaults.
func New(opts ...Option) (*Redactor, error) {
	cfg := config{mask: DefaultMaskChar}
	for _, o := range opts {
		o(&cfg)
	}

	configs := cfg.replace
	if configs == nil {
		defaults, err := DefaultRecognizers()
		if err != nil {
			return nil, fmt.Errorf("loading default recognizers: %w", err)
		}
		configs = defaults
	}
	configs = append(append([]RecognizerConfig(nil), configs...), cfg.extra...)

	if cfg.filePath != "" {
		rf, err := LoadRecognizerFile(cfg.filePath)
		if err != nil {
			return nil, err
		}
		if rf != nil {
			configs = append(configs, rf.Recognizers...)
		}
	}

	compiled, err := compile(configs)
	if err != nil {
		return nil, err
	}
	return &Redactor{recognizers: compiled, mask: cfg.mask}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Redactor {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("redact.New: %v", err))
	}
	return r
}

var defaultRedactor = sync.OnceValue(func() *Redactor { return MustNew() })

// Default returns a shared Redactor built from the embedded recognizers.
func Default() *Redactor {
	return defaultRedactor()
}

// Redact masks every recognised span and reports the original substrings per kind.
//
// The ordered recognizer sequence is re-applied until nothing matches. A kept
// suffix can join neighbouring digits into a fresh match, and the extra passes
// catch those, so Redact(Redact(x)) == Redact(x).
func (r *Redactor) Redact(text string) (string, Matches) {
	matches := Matches{}
	current := text

	for {
		changed := false
		for _, rec := range r.recognizers {
			locs := rec.pattern.FindAllStringIndex(current, -1)
			if len(locs) == 0 {
				continue
			}

			var b strings.Builder
			b.Grow(len(current))
			last := 0
			for _, loc := range locs {
				val := current[loc[0]:loc[1]]
				masked := Mask(val, r.mask)
				if masked != val {
					changed = true
					matches[rec.kind] = append(matches[rec.kind], val)
				}
				b.WriteString(current[last:loc[0]])
				b.WriteString(masked)
				last = loc[1]
			}
			b.WriteString(current[last:])
			current = b.String()
		}
		if !changed {
			return current, matches
		}
	}
}

// Scrub returns only the redacted text.
func (r *Redactor) Scrub(text string) string {
	out, _ := r.Redact(text)
	return out
}

// Kinds lists the recognizer kinds in application order.
func (r *Redactor) Kinds() []Kind {
	out := make([]Kind, len(r.recognizers))
	for i, rec := range r.recognizers {
		out[i] = rec.kind
	}
	return out
}

// Mask replaces every character except the trailing four with mask.
// Values shorter than four characters are masked entirely.
func Mask(val string, mask rune) string {
	runes := []rune(val)
	n := len(runes)
	if n < keep {
		return strings.Repeat(string(mask), n)
	}
	return strings.Repeat(string(mask), n-keep) + string(runes[n-keep:])
}
