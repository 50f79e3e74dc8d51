package search_test

import (
	"reflect"
	"testing"

	"recrutement/backoffice-service/internal/search"
)

// person is a minimal Searchable used to exercise the engine without the
// model package.
type person struct {
	Nom         string
	Ville       *string
	Statut      string
	Niveau      string
	Competences []string
	Experiences [][]string
	Age         *int
}

func (p person) Project() search.Projection {
	var pr search.Projection
	pr.Scalar(p.Nom, p.Statut, p.Niveau).ScalarPtr(p.Ville).Int(p.Age)
	pr.Array(p.Competences)
	for _, e := range p.Experiences {
		pr.Sub(e...)
	}
	return pr
}

func (p person) Category(name string) string {
	switch name {
	case "statut":
		return p.Statut
	case "niveau_experience":
		return p.Niveau
	}
	return ""
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func names(rs []person) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Nom)
	}
	return out
}

// ── Tokenize ───────────────────────────────────────────────────────────────

func TestTokenize(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{}},
		{"   \t\n ", []string{}},
		{"Marie", []string{"marie"}},
		{"  Marie   PARIS ", []string{"marie", "paris"}},
		{"java\tsql\npython", []string{"java", "sql", "python"}},
		{"go go", []string{"go", "go"}},
		{"c++, java.", []string{"c++,", "java."}},
	}
	for _, c := range cases {
		got := search.Tokenize(c.query)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

// ── Matches ────────────────────────────────────────────────────────────────

func TestMatches_EmptyTokensMatchEverything(t *testing.T) {
	for _, p := range []person{{}, {Nom: "Dubois"}} {
		if !search.Matches(p, search.Tokenize("")) {
			t.Errorf("Matches(%+v, []) should be true", p)
		}
	}
}

func TestMatches_AllTokensRequired(t *testing.T) {
	both := person{Nom: "Marie Curie", Ville: strPtr("Paris")}
	onlyName := person{Nom: "Marie Curie", Ville: strPtr("Lyon")}
	tokens := []string{"marie", "paris"}

	if !search.Matches(both, tokens) {
		t.Error("record containing both words in different fields should match")
	}
	if search.Matches(onlyName, tokens) {
		t.Error("record containing only one of the words must not match")
	}
}

func TestMatches_SubstringNotWholeWord(t *testing.T) {
	if !search.Matches(person{Nom: "Marie"}, []string{"mar"}) {
		t.Error("\"mar\" should match \"Marie\"")
	}
}

func TestMatches_NullAndEmptyFieldsNeverMatch(t *testing.T) {
	p := person{}
	if search.Matches(p, []string{"a"}) {
		t.Error("record with no values must not match a non-empty token")
	}
}

func TestMatches_NumbersAreStringified(t *testing.T) {
	p := person{Nom: "Durand", Age: intPtr(42)}
	if !search.Matches(p, []string{"42"}) {
		t.Error("numeric field should match its decimal form")
	}
}

func TestMatches_NestedEntriesAreSearched(t *testing.T) {
	p := person{Nom: "Martin", Experiences: [][]string{{"Airbus", "Ingénieur qualité"}}}
	if !search.Matches(p, []string{"airbus"}) {
		t.Error("nested sub-record field should be searched")
	}
	if !search.Matches(p, []string{"qualité", "martin"}) {
		t.Error("tokens may be satisfied by scalar and nested fields together")
	}
}

// ── ContainsToken ──────────────────────────────────────────────────────────

func TestContainsToken_LowercasesFieldsAtComparison(t *testing.T) {
	var p search.Projection
	p.Array([]string{"PostgreSQL"})
	if !search.ContainsToken(p, "sql") {
		t.Error("ContainsToken should compare against the lowercased field")
	}
	if search.ContainsToken(p, "mysql") {
		t.Error("ContainsToken(\"mysql\") should be false")
	}
}

// ── Filters ────────────────────────────────────────────────────────────────

func TestIsActive(t *testing.T) {
	cases := []struct {
		query   string
		filters search.Filters
		want    bool
	}{
		{"", nil, false},
		{"   ", search.Filters{"statut": search.All}, false},
		{"", search.Filters{"statut": ""}, false},
		{"java", nil, true},
		{"", search.Filters{"statut": "actif"}, true},
		{"", search.Filters{"statut": search.All, "niveau_experience": "senior"}, true},
	}
	for _, c := range cases {
		if got := search.IsActive(c.query, c.filters); got != c.want {
			t.Errorf("IsActive(%q, %v) = %v, want %v", c.query, c.filters, got, c.want)
		}
	}
}

func TestPassesFilters_ExactCaseSensitive(t *testing.T) {
	p := person{Statut: "actif"}
	cases := []struct {
		filters search.Filters
		want    bool
	}{
		{search.Filters{"statut": "actif"}, true},
		{search.Filters{"statut": "Actif"}, false},
		{search.Filters{"statut": "act"}, false},
		{search.Filters{"statut": search.All}, true},
		{search.Filters{"poste": "Comptable"}, false},
	}
	for _, c := range cases {
		if got := search.PassesFilters(p, c.filters); got != c.want {
			t.Errorf("PassesFilters(%v) = %v, want %v", c.filters, got, c.want)
		}
	}
}

// ── Apply ──────────────────────────────────────────────────────────────────

func sample() []person {
	return []person{
		{Nom: "Dubois", Statut: "actif", Niveau: "senior", Competences: []string{"Java", "SQL"}, Ville: strPtr("Paris")},
		{Nom: "Martin", Statut: "inactif", Niveau: "debutant", Competences: []string{"Python"}, Ville: strPtr("Lyon")},
		{Nom: "Marie Lefevre", Statut: "actif", Niveau: "debutant", Ville: strPtr("Paris")},
		{Nom: "Bernard", Statut: "actif", Niveau: "senior", Competences: []string{"SQL Server"}},
	}
}

func TestApply_BlankQueryReturnsEverything(t *testing.T) {
	recs := sample()
	res := search.Apply(recs, "", search.Filters{"statut": search.All})
	if res.Count != len(recs) {
		t.Fatalf("Count = %d, want %d", res.Count, len(recs))
	}
	if !reflect.DeepEqual(res.Records, recs) {
		t.Errorf("Records = %v, want input unchanged", names(res.Records))
	}
	if res.Active {
		t.Error("Active should be false for blank query and \"all\" filters")
	}
}

func TestApply_ExampleScenario(t *testing.T) {
	recs := []person{
		{Nom: "Dubois", Competences: []string{"Java", "SQL"}},
		{Nom: "Martin", Competences: []string{"Python"}},
	}

	res := search.Apply(recs, "sql", nil)
	if got := names(res.Records); !reflect.DeepEqual(got, []string{"Dubois"}) {
		t.Errorf("query \"sql\" → %v, want [Dubois]", got)
	}

	res = search.Apply(recs, "", search.Filters{"statut": search.All})
	if res.Count != 2 || res.Active {
		t.Errorf("blank query → count=%d active=%v, want 2 false", res.Count, res.Active)
	}
}

func TestApply_CaseInsensitiveQuery(t *testing.T) {
	recs := sample()
	upper := search.Apply(recs, "MARIE", nil)
	lower := search.Apply(recs, "marie", nil)
	if !reflect.DeepEqual(upper.Records, lower.Records) {
		t.Errorf("MARIE → %v, marie → %v", names(upper.Records), names(lower.Records))
	}
	if upper.Count != 1 {
		t.Errorf("Count = %d, want 1", upper.Count)
	}
}

func TestApply_CategoryFilterAndText(t *testing.T) {
	recs := sample()

	res := search.Apply(recs, "", search.Filters{"statut": "actif"})
	if got := names(res.Records); !reflect.DeepEqual(got, []string{"Dubois", "Marie Lefevre", "Bernard"}) {
		t.Errorf("statut=actif → %v", got)
	}
	if !res.Active {
		t.Error("Active should be true when a category is constrained")
	}

	res = search.Apply(recs, "sql", search.Filters{"statut": "actif"})
	if got := names(res.Records); !reflect.DeepEqual(got, []string{"Dubois", "Bernard"}) {
		t.Errorf("statut=actif q=sql → %v", got)
	}

	res = search.Apply(recs, "sql", search.Filters{"statut": "actif", "niveau_experience": "senior"})
	if got := names(res.Records); !reflect.DeepEqual(got, []string{"Dubois", "Bernard"}) {
		t.Errorf("statut=actif niveau=senior q=sql → %v", got)
	}

	res = search.Apply(recs, "paris", search.Filters{"niveau_experience": "debutant"})
	if got := names(res.Records); !reflect.DeepEqual(got, []string{"Marie Lefevre"}) {
		t.Errorf("niveau=debutant q=paris → %v", got)
	}
}

func TestApply_Idempotent(t *testing.T) {
	recs := sample()
	f := search.Filters{"statut": "actif"}
	first := search.Apply(recs, "sql paris", f)
	second := search.Apply(recs, "sql paris", f)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Apply is not idempotent: %+v vs %+v", first, second)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	recs := sample()
	before := sample()
	_ = search.Apply(recs, "java", search.Filters{"statut": "inactif"})
	_ = search.Apply(recs, "", nil)
	if !reflect.DeepEqual(recs, before) {
		t.Error("input records changed after Apply")
	}
}

func TestApply_ResultIsNewSlice(t *testing.T) {
	recs := sample()
	res := search.Apply(recs, "", nil)
	res.Records[0].Nom = "changed"
	if recs[0].Nom != "Dubois" {
		t.Error("writing to the result slice must not affect the input slice")
	}
}

func TestApply_NilInput(t *testing.T) {
	res := search.Apply[person](nil, "x", nil)
	if res.Count != 0 || res.Records == nil {
		t.Errorf("Apply(nil) = %+v, want empty non-nil slice", res)
	}
}
