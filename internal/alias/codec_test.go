package alias_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/alias"
)

func newEmojiCodec(t *testing.T, opts ...alias.Option) *alias.Codec {
	t.Helper()

	codec, err := alias.NewCodec(alias.StyleEmoji, alias.DefaultTokenLength, opts...)
	require.NoError(t, err)

	return codec
}

func TestValidEmojis(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"three emojis", "🐎🦄🌀", true},
		{"eight emojis", "🐎🦄🌀✨🎉🪐👽🛸", true},
		{"fifteen emojis", strings.Repeat("🐎", 15), true},
		{"sixteen emojis", strings.Repeat("🐎", 16), false},
		{"single emoji", "🎨", true},
		{"variation selector", "☀️❤️", true},
		{"zwj family", "👨‍👩‍👧", true},
		{"skin tone", "👍🏽", true},
		{"flag", "🇳🇿", true},
		{"keycap", "1️⃣", true},
		{"plain text", "abc", false},
		{"empty", "", false},
		{"emoji with letter", "🐎a", false},
		{"emoji with space", "🐎 🦄", false},
		{"bare digit", "1", false},
		{"check mark symbol", "✓", false},
		{"circled digit", "❶", false},
		{"arrow symbol", "⬈", false},
		{"ballot box", "☐", false},
		{"squared letter", "🄰", false},
		{"symbol after emoji", "🐎✓", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alias.ValidEmojis(tt.input))
		})
	}
}

func TestEmojiSets(t *testing.T) {
	sets := map[string][]string{"pool": alias.Pool, "decorative": alias.Decorative}

	for _, group := range alias.DefaultRules {
		for _, rule := range group.Rules {
			sets[group.Name] = append(sets[group.Name], rule.Emoji)
		}
	}

	for name, emojis := range sets {
		t.Run(name, func(t *testing.T) {
			for _, e := range emojis {
				assert.True(t, alias.ValidEmojis(e), e)
				assert.Equal(t, 1, alias.Count(e), e)
			}
		})
	}
}

func TestNewCodec(t *testing.T) {
	t.Run("defaults to emoji style", func(t *testing.T) {
		codec, err := alias.NewCodec("", alias.DefaultTokenLength)

		require.NoError(t, err)
		assert.Equal(t, alias.StyleEmoji, codec.Style())
	})

	t.Run("rejects unknown style", func(t *testing.T) {
		_, err := alias.NewCodec("base62", alias.DefaultTokenLength)

		assert.ErrorIs(t, err, alias.ErrUnknownStyle)
	})
}

func TestCodec_Generate(t *testing.T) {
	t.Run("emoji aliases always validate", func(t *testing.T) {
		codec := newEmojiCodec(t)

		for range 500 {
			generated := codec.Generate()

			assert.True(t, codec.Valid(generated), generated)
			assert.Equal(t, alias.DefaultEmojiLength, alias.Count(generated))
		}
	})

	t.Run("honours configured length", func(t *testing.T) {
		codec := newEmojiCodec(t, alias.WithEmojiLength(7))

		assert.Equal(t, 7, alias.Count(codec.Generate()))
	})

	t.Run("clamps length to the valid range", func(t *testing.T) {
		codec := newEmojiCodec(t, alias.WithEmojiLength(40))

		generated := codec.Generate()

		assert.Equal(t, alias.MaxEmojis, alias.Count(generated))
		assert.True(t, codec.Valid(generated))
	})

	t.Run("token aliases always validate", func(t *testing.T) {
		codec, err := alias.NewCodec(alias.StyleToken, 8)
		require.NoError(t, err)

		for range 100 {
			generated := codec.Generate()

			assert.Len(t, generated, 8)
			assert.True(t, codec.Valid(generated), generated)
		}
	})
}

func TestCodec_Valid(t *testing.T) {
	t.Run("emoji codec rejects tokens", func(t *testing.T) {
		codec := newEmojiCodec(t)

		assert.False(t, codec.Valid("abc123"))
	})

	t.Run("token codec accepts tokens and emojis", func(t *testing.T) {
		codec, err := alias.NewCodec(alias.StyleToken, 8)
		require.NoError(t, err)

		assert.True(t, codec.Valid("abc123"))
		assert.True(t, codec.Valid("🎨🎭🎪"))
		assert.False(t, codec.Valid("ab"))
		assert.False(t, codec.Valid("has space"))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "🎨🎭🎪", alias.Normalize("  🎨🎭🎪 "))
	assert.Equal(t, "🎨", alias.Normalize("%F0%9F%8E%A8"))
	assert.Equal(t, "100%", alias.Normalize("100%"))
}
