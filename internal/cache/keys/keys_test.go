package keys

import (
	"net/url"
	"regexp"
	"testing"
	"unicode"
)

func TestDeterminism_ParameterOrderAndBlanks(t *testing.T) {
	a, _ := url.ParseQuery("priceRangeId=1&kind=座椅子&page=0&perPage=25")
	b, _ := url.ParseQuery("perPage=25&page=0&color=&kind=座椅子&priceRangeId=1")

	k1 := Response("/api/chair/search", a, Gen{"chair", 3})
	k2 := Response("/api/chair/search", b, Gen{"chair", 3})
	if k1 != k2 {
		t.Fatalf("normalized keys differ:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestDifference_GenerationRouteAndQuery(t *testing.T) {
	q, _ := url.ParseQuery("page=0&perPage=25&rentRangeId=1")
	base := Response("/api/estate/search", q, Gen{"estate", 1})

	if base == Response("/api/estate/search", q, Gen{"estate", 2}) {
		t.Fatal("new generation must produce a new key")
	}
	if base == Response("/api/chair/search", q, Gen{"estate", 1}) {
		t.Fatal("route must be part of the key")
	}
	q2, _ := url.ParseQuery("page=1&perPage=25&rentRangeId=1")
	if base == Response("/api/estate/search", q2, Gen{"estate", 1}) {
		t.Fatal("different query must produce a different key")
	}
}

func TestShape(t *testing.T) {
	k := Response("/api/recommended_estate/12", nil, Gen{"chair", 0}, Gen{"estate", 7})

	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	re := regexp.MustCompile(`^isuumo:chair:g0:estate:g7:api-recommended_estate-12:q=[0-9a-f]{16}$`)
	if !re.MatchString(k) {
		t.Fatalf("unexpected key shape: %s", k)
	}
	if g := Generation("chair"); g != "isuumo:gen:chair" {
		t.Fatalf("Generation=%q", g)
	}
}

func TestCanonicalQuery(t *testing.T) {
	v := url.Values{"b": {"2"}, "a": {"1", ""}, "c": {""}, "features": {"a,b"}}
	if got, want := CanonicalQuery(v), "a=1&b=2&features=a%2Cb"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestCanonicalQuery_FirstValueWins(t *testing.T) {
	blankFirst, _ := url.ParseQuery("kind=x&features=&features=y&page=0&perPage=10")
	plain, _ := url.ParseQuery("kind=x&features=y&page=0&perPage=10")
	repeated, _ := url.ParseQuery("kind=x&features=y&features=z&page=0&perPage=10")

	if CanonicalQuery(blankFirst) == CanonicalQuery(plain) {
		t.Fatal("a blank first value is read as no filter and must not share the filtered key")
	}
	if got, want := CanonicalQuery(blankFirst), "kind=x&page=0&perPage=10"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
	if CanonicalQuery(repeated) != CanonicalQuery(plain) {
		t.Fatal("values after the first are never read and must not change the key")
	}
}
