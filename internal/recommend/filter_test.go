package recommend

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

func TestFilterTalks(t *testing.T) {
	talks := []artifact.Talk{
		{Title: "Do schools kill creativity?", MainSpeaker: "Ken Robinson"},
		{Title: "The power of vulnerability", MainSpeaker: "Brené Brown"},
		{Title: "How great leaders inspire action", MainSpeaker: "Simon Sinek"},
		{Title: "Your body language may shape who you are", MainSpeaker: "Amy Cuddy"},
	}

	got := FilterTalks(talks, "BRENÉ power", 0)
	if len(got) != 1 || got[0].MainSpeaker != "Brené Brown" {
		t.Fatalf("unexpected match: %+v", got)
	}

	if got := FilterTalks(talks, "schools sinek", 0); len(got) != 0 {
		t.Fatalf("tokens must all match: %+v", got)
	}

	if got := FilterTalks(talks, "  ", 0); len(got) != 4 {
		t.Fatalf("empty query should return all, got %d", len(got))
	}

	got = FilterTalks(talks, "", 2)
	if len(got) != 2 || got[0].Title != talks[0].Title {
		t.Fatalf("limit/order not honored: %+v", got)
	}
}

func TestSortTalks_Collation(t *testing.T) {
	talks := []artifact.Talk{{Title: "zebra"}, {Title: "Éclair"}, {Title: "apple"}, {Title: "Eagle"}}
	SortTalks(talks, language.English)
	want := []string{"apple", "Eagle", "Éclair", "zebra"}
	for i, w := range want {
		if talks[i].Title != w {
			t.Fatalf("position %d: got %q want %q (all: %+v)", i, talks[i].Title, w, talks)
		}
	}
}
