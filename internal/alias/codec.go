package alias

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jaevor/go-nanoid"
)

// Style selects the form of generated aliases.
type Style string

const (
	// StyleEmoji generates emoji sequences.
	StyleEmoji Style = "emoji"
	// StyleToken generates short URL-safe tokens.
	StyleToken Style = "token"
)

const (
	DefaultEmojiLength = 4
	DefaultTokenLength = 8
	MinTokenLength     = 3
	MaxTokenLength     = 16
)

var ErrUnknownStyle = errors.New("unknown alias style")

var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Pool is the curated set random emoji aliases are drawn from. Every entry is
// a single code point so generated aliases render the same everywhere.
var Pool = []string{
	"🐎", "🦄", "🌀", "🎉", "🪐", "👽", "🛸", "🚀",
	"🍕", "🍩", "🍉", "🍒", "🥑", "🌮", "🍔", "🧁",
	"🐙", "🦊", "🐸", "🐼", "🐧", "🦉", "🐢", "🐝",
	"🌵", "🌻", "🍄", "🌴", "🍀", "🌸", "🌊", "🔥",
	"🎸", "🎺", "🥁", "🎧", "🎲", "🎯", "🎨", "🎭",
	"💎", "🔮", "🧲", "🪄", "🧩", "🪁", "🎈", "🎁",
	"🌙", "🌈", "🌟", "💫", "🌍", "🧊", "💡", "🔔",
	"🦖", "🐳", "🦋", "🐞", "🦜", "🦩", "🦔", "🐌",
}

// Codec validates, generates and normalizes short aliases. It has no
// knowledge of which aliases are already taken.
type Codec struct {
	style       Style
	emojiLength int
	intN        func(n int) int
	newToken    func() string
	rules       []RuleGroup
	decorative  []string
}

// Option configures a Codec.
type Option func(*Codec)

// WithEmojiLength sets the number of emojis in generated aliases.
func WithEmojiLength(n int) Option {
	return func(c *Codec) {
		c.emojiLength = min(max(n, 1), MaxEmojis)
	}
}

// WithRand replaces the random source, mostly for tests.
func WithRand(intN func(n int) int) Option {
	return func(c *Codec) {
		c.intN = intN
	}
}

// WithTokenGenerator replaces the token generator used in StyleToken.
func WithTokenGenerator(gen func() string) Option {
	return func(c *Codec) {
		c.newToken = gen
	}
}

// NewCodec creates a codec for the given style.
func NewCodec(style Style, tokenLength int, opts ...Option) (*Codec, error) {
	if style == "" {
		style = StyleEmoji
	}

	if style != StyleEmoji && style != StyleToken {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	c := &Codec{
		style:       style,
		emojiLength: DefaultEmojiLength,
		intN:        rand.IntN,
		rules:       DefaultRules,
		decorative:  Decorative,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.newToken == nil {
		gen, err := nanoid.Standard(min(max(tokenLength, MinTokenLength), MaxTokenLength))
		if err != nil {
			return nil, fmt.Errorf("token generator: %w", err)
		}

		c.newToken = gen
	}

	return c, nil
}

// Style returns the codec's generation style.
func (c *Codec) Style() Style {
	return c.style
}

// Valid reports whether candidate is an acceptable alias. Emoji sequences are
// always accepted; tokens only when the codec runs in StyleToken.
func (c *Codec) Valid(candidate string) bool {
	if ValidEmojis(candidate) {
		return true
	}

	return c.style == StyleToken && ValidToken(candidate)
}

// Generate returns a random alias that passes Valid.
func (c *Codec) Generate() string {
	if c.style == StyleToken {
		return c.newToken()
	}

	var b strings.Builder

	for range c.emojiLength {
		b.WriteString(Pool[c.intN(len(Pool))])
	}

	return b.String()
}

// ValidToken reports whether s is a well formed token alias.
func ValidToken(s string) bool {
	err := validation.Validate(s,
		validation.Required,
		validation.Length(MinTokenLength, MaxTokenLength),
		validation.Match(tokenRe),
	)

	return err == nil
}

// Normalize trims surrounding whitespace and decodes percent-escaped input,
// as received from a URL path.
func Normalize(candidate string) string {
	candidate = strings.TrimSpace(candidate)

	if strings.Contains(candidate, "%") {
		if decoded, err := url.PathUnescape(candidate); err == nil {
			candidate = decoded
		}
	}

	return candidate
}
