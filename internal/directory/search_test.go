package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laci-tracker/internal/domain"
)

func TestParseSearchTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "homer", []string{"homer"}},
		{"multiple", "homer simpson", []string{"homer", "simpson"}},
		{"quoted phrase", `"homer simpson" ops`, []string{"homer simpson", "ops"}},
		{"extra spaces", "  homer   simpson ", []string{"homer", "simpson"}},
		{"unclosed quote", `"homer simpson`, []string{"homer simpson"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSearchTerms(tt.query))
		})
	}
}

func TestMatchesEntityANDSemantics(t *testing.T) {
	e := domain.DirectoryEntity{
		DisplayName:       "Homer Simpson",
		Mail:              "homer@springfield.example",
		UserPrincipalName: "homer@springfield.example",
		ProxyAddresses:    []string{"hsimpson@plant.example"},
	}

	assert.True(t, matchesEntity(e, []string{"homer"}))
	assert.True(t, matchesEntity(e, []string{"HOMER", "simpson"}))
	// Terms may match different attributes.
	assert.True(t, matchesEntity(e, []string{"homer", "plant"}))
	// Every term must match somewhere.
	assert.False(t, matchesEntity(e, []string{"homer", "flanders"}))
	// No terms matches everything.
	assert.True(t, matchesEntity(e, nil))
}

func TestSearchDedupeAndRanking(t *testing.T) {
	entities := []domain.DirectoryEntity{
		{DisplayName: "Simpson Team"},
		{DisplayName: "Homer Simpson", Mail: "homer@springfield.example"},
		{DisplayName: "Homer Simpson", Mail: "homer@springfield.example"}, // duplicate
		{DisplayName: "Marge Simpson", Mail: "marge@springfield.example"},
	}

	results := search(entities, "Homer Simpson")
	require.Len(t, results, 1)
	assert.Equal(t, "Homer Simpson", results[0].DisplayName)
	require.NotNil(t, results[0].Mail)
	assert.Equal(t, "homer@springfield.example", *results[0].Mail)

	// Exact display-name match ranks first, then entities with mail.
	results = search(entities, "simpson")
	require.Len(t, results, 3)
	assert.Equal(t, "Homer Simpson", results[0].DisplayName)
	assert.Equal(t, "Marge Simpson", results[1].DisplayName)
	assert.Equal(t, "Simpson Team", results[2].DisplayName)
	assert.Nil(t, results[2].Mail)

	// Exact match outranks mail presence.
	results = search(entities, "Simpson Team")
	require.NotEmpty(t, results)
	assert.Equal(t, "Simpson Team", results[0].DisplayName)
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	entities := []domain.DirectoryEntity{
		{DisplayName: "Alpha", Mail: "a@example.com"},
		{DisplayName: "Beta"},
	}
	results := search(entities, "")
	assert.Len(t, results, 2)
	// Mail-bearing entries still rank first.
	assert.Equal(t, "Alpha", results[0].DisplayName)
}
