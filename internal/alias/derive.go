package alias

import (
	"slices"
	"strings"
)

// DerivedLength is the number of emojis Derive produces.
const DerivedLength = 3

// Rule maps any of its keywords to an emoji.
type Rule struct {
	Keywords []string
	Emoji    string
}

// RuleGroup is a themed category of rules. In an exclusive group only the
// first matching rule contributes.
type RuleGroup struct {
	Name      string
	Exclusive bool
	Rules     []Rule
}

// DefaultRules is evaluated in order; earlier groups win the three slots.
var DefaultRules = []RuleGroup{
	{
		Name:      "mood",
		Exclusive: true,
		Rules: []Rule{
			{Keywords: []string{"dark", "night"}, Emoji: "🌙"},
			{Keywords: []string{"light", "bright"}, Emoji: "☀️"},
		},
	},
	{
		Name:      "color",
		Exclusive: true,
		Rules: []Rule{
			{Keywords: []string{"rainbow", "multicolor"}, Emoji: "🌈"},
			{Keywords: []string{"blue"}, Emoji: "💙"},
			{Keywords: []string{"red"}, Emoji: "❤️"},
			{Keywords: []string{"green"}, Emoji: "💚"},
			{Keywords: []string{"purple"}, Emoji: "💜"},
			{Keywords: []string{"yellow", "gold"}, Emoji: "💛"},
		},
	},
	{
		Name: "element",
		Rules: []Rule{
			{Keywords: []string{"gravity"}, Emoji: "🌍"},
			{Keywords: []string{"sparkle", "twinkle"}, Emoji: "✨"},
			{Keywords: []string{"fire", "flame"}, Emoji: "🔥"},
			{Keywords: []string{"water", "wave"}, Emoji: "🌊"},
		},
	},
	{
		Name: "shape",
		Rules: []Rule{
			{Keywords: []string{"star"}, Emoji: "⭐"},
			{Keywords: []string{"heart"}, Emoji: "💖"},
		},
	},
}

// Decorative pads derived aliases that matched fewer than DerivedLength rules.
var Decorative = []string{"🎨", "🎭", "🎪", "🎯", "🎲", "🎰", "✨", "🌟", "💫", "🔮"}

// Match returns the emojis selected by rules for hint, in rule order and
// without duplicates.
func Match(rules []RuleGroup, hint string) []string {
	hint = strings.ToLower(hint)

	var picked []string

	for _, group := range rules {
		for _, rule := range group.Rules {
			if !containsAny(hint, rule.Keywords) {
				continue
			}

			if !slices.Contains(picked, rule.Emoji) {
				picked = append(picked, rule.Emoji)
			}

			if group.Exclusive {
				break
			}
		}
	}

	return picked
}

// Derive maps a free-text hint to a themed alias of DerivedLength emojis.
// Unmatched slots are filled with distinct decorative emojis, so an empty or
// unrecognised hint still yields a valid alias.
func (c *Codec) Derive(hint string) string {
	picked := Match(c.rules, hint)
	if len(picked) > DerivedLength {
		picked = picked[:DerivedLength]
	}

	spare := make([]string, 0, len(c.decorative))

	for _, e := range c.decorative {
		if !slices.Contains(picked, e) {
			spare = append(spare, e)
		}
	}

	for len(picked) < DerivedLength && len(spare) > 0 {
		i := c.intN(len(spare))
		picked = append(picked, spare[i])
		spare = slices.Delete(spare, i, i+1)
	}

	return strings.Join(picked, "")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}

	return false
}
