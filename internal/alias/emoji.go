package alias

import (
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// MaxEmojis is the longest emoji alias accepted, counted in grapheme clusters.
const MaxEmojis = 15

const vs16 = "\ufe0f"

// known holds every emoji sequence of the Unicode emoji list with variation
// selectors removed, so "❤" and "❤️" match the same entry.
var known = func() map[string]struct{} {
	all := gomoji.AllEmojis()

	set := make(map[string]struct{}, len(all))
	for _, e := range all {
		set[strings.ReplaceAll(e.Character, vs16, "")] = struct{}{}
	}

	return set
}()

func isEmojiCluster(cluster string) bool {
	_, ok := known[strings.ReplaceAll(cluster, vs16, "")]

	return ok
}

// splitEmojis returns the grapheme clusters of s, or nil when any cluster is
// not an emoji.
func splitEmojis(s string) []string {
	var clusters []string

	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if !isEmojiCluster(g.Str()) {
			return nil
		}

		clusters = append(clusters, g.Str())
	}

	return clusters
}

// ValidEmojis reports whether s is a sequence of 1 to MaxEmojis emojis.
func ValidEmojis(s string) bool {
	if s == "" {
		return false
	}

	clusters := splitEmojis(s)

	return len(clusters) > 0 && len(clusters) <= MaxEmojis
}

// Count returns the number of grapheme clusters in s.
func Count(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
