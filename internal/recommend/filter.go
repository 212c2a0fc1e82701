package recommend

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

// FilterTalks narrows a talk list for selection by case-insensitive matching over title
// and speaker. All query tokens must match (AND semantics). Catalog order is preserved.
// An empty query returns every talk.
//
// This is for pickers only; Recommend itself always matches titles exactly.
func FilterTalks(talks []artifact.Talk, query string, limit int) []artifact.Talk {
	fold := cases.Fold()
	tokens := tokenize(fold, query)

	var out []artifact.Talk
	for _, t := range talks {
		if limit > 0 && len(out) >= limit {
			break
		}
		if len(tokens) > 0 {
			blob := fold.String(t.Title + "\n" + t.MainSpeaker)
			ok := true
			for _, tok := range tokens {
				if !strings.Contains(blob, tok) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func tokenize(fold cases.Caser, q string) []string {
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, fold.String(p))
	}
	return out
}

// SortTalks orders talks by title using the collation rules of tag
// (e.g. language.English), so accented titles sort next to their base letters.
func SortTalks(talks []artifact.Talk, tag language.Tag) {
	c := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(talks, func(i, j int) bool {
		return c.CompareString(talks[i].Title, talks[j].Title) < 0
	})
}
