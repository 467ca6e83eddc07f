package planner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUpdates_NoMarkerIsIdentity(t *testing.T) {
	for _, text := range []string{"", "  Bonjour !  ", "## Jour 1\nplage", "a ||| b ||| c"} {
		ex := ExtractUpdates(text)
		assert.Equal(t, text, ex.Visible)
		assert.True(t, ex.Updates.Empty())
		assert.False(t, ex.Found)
		assert.NoError(t, ex.Err)
	}
}

func TestExtractUpdates_BudgetWithCurrencyAndSpaces(t *testing.T) {
	ex := ExtractUpdates(`Voici votre plan...|||UPDATES: {"budget": "2 500€"}|||`)

	assert.Equal(t, "Voici votre plan...", ex.Visible)
	require.NotNil(t, ex.Updates.Budget)
	assert.Equal(t, 2500.0, *ex.Updates.Budget)
	assert.Equal(t, []string{FieldBudget}, ex.Updates.Fields())
}

func TestExtractUpdates_AllFields(t *testing.T) {
	text := "Modifications : destination et dates.\n\n## Jour 1\n...\n" +
		`|||UPDATES: {"budget": 3200, "destination": " Paris ", "duration": 7, "startDate": "2026-05-01", "travelers": "3 personnes"}|||`

	ex := ExtractUpdates(text)

	assert.NotContains(t, ex.Visible, "UPDATES:")
	assert.True(t, strings.HasSuffix(ex.Visible, "..."))
	u := ex.Updates
	require.NotNil(t, u.Budget)
	require.NotNil(t, u.Destination)
	require.NotNil(t, u.Duration)
	require.NotNil(t, u.StartDate)
	require.NotNil(t, u.Travelers)
	assert.Equal(t, 3200.0, *u.Budget)
	assert.Equal(t, "Paris", *u.Destination)
	assert.Equal(t, 7, *u.Duration)
	assert.Equal(t, "2026-05-01", u.StartDate.Format("2006-01-02"))
	assert.Equal(t, 3, *u.Travelers)
}

func TestExtractUpdates_MarkerInTheMiddle(t *testing.T) {
	ex := ExtractUpdates("Avant\n|||UPDATES: {\"duration\": 5}|||\nAprès")

	assert.Equal(t, "Avant\n\nAprès", ex.Visible)
	require.NotNil(t, ex.Updates.Duration)
	assert.Equal(t, 5, *ex.Updates.Duration)
}

func TestExtractUpdates_MalformedJSONFailsOpen(t *testing.T) {
	ex := ExtractUpdates(`Plan mis à jour.|||UPDATES: {budget: 2500,}|||`)

	assert.Equal(t, "Plan mis à jour.", ex.Visible)
	assert.True(t, ex.Found)
	assert.ErrorIs(t, ex.Err, ErrMalformedUpdates)
	assert.True(t, ex.Updates.Empty())
}

func TestExtractUpdates_NonObjectPayload(t *testing.T) {
	for _, payload := range []string{`[1,2]`, `null`, `"budget"`, ``} {
		ex := ExtractUpdates("ok |||UPDATES: " + payload + "|||")
		assert.Equal(t, "ok", ex.Visible, payload)
		assert.ErrorIs(t, ex.Err, ErrMalformedUpdates, payload)
	}
}

func TestExtractUpdates_UnterminatedBlockKeepsFollowingText(t *testing.T) {
	ex := ExtractUpdates("Intro\n|||UPDATES: {\"travelers\": 4}\n## Jour 1\nMatin : marché")

	assert.NotContains(t, ex.Visible, "UPDATES")
	assert.Contains(t, ex.Visible, "## Jour 1\nMatin : marché")
	assert.Contains(t, ex.Visible, "Intro")
	require.NotNil(t, ex.Updates.Travelers)
	assert.Equal(t, 4, *ex.Updates.Travelers)
}

func TestExtractUpdates_UnterminatedWithoutObject(t *testing.T) {
	ex := ExtractUpdates("Texte |||UPDATES: oups pas de JSON")

	assert.NotContains(t, ex.Visible, "UPDATES")
	assert.Contains(t, ex.Visible, "oups pas de JSON")
	assert.ErrorIs(t, ex.Err, ErrMalformedUpdates)
}

func TestExtractUpdates_SpacingAndCaseDrift(t *testing.T) {
	ex := ExtractUpdates(`Fait. ||| updates : {"budget": 900}|||`)

	assert.Equal(t, "Fait.", ex.Visible)
	require.NotNil(t, ex.Updates.Budget)
	assert.Equal(t, 900.0, *ex.Updates.Budget)
}

func TestExtractUpdates_OnlyFirstBlockParsedAllStripped(t *testing.T) {
	ex := ExtractUpdates(`A|||UPDATES: {"duration": 3}|||B|||UPDATES: {"duration": 9}|||C`)

	assert.Equal(t, "ABC", ex.Visible)
	require.NotNil(t, ex.Updates.Duration)
	assert.Equal(t, 3, *ex.Updates.Duration)
}

func TestExtractUpdates_DelimiterInsideJSONString(t *testing.T) {
	ex := ExtractUpdates(`Plan |||UPDATES: {"destination": "A|||B"}|||`)

	assert.Equal(t, "Plan", ex.Visible)
	assert.NoError(t, ex.Err)
	require.NotNil(t, ex.Updates.Destination)
	assert.Equal(t, "A|||B", *ex.Updates.Destination)
}

func TestExtractUpdates_ExtraPipesAroundBlock(t *testing.T) {
	cases := map[string]string{
		`Plan ||||UPDATES: {"budget": 10}|||`:       "Plan",
		`Plan |||UPDATES: {"budget": 10}||||`:       "Plan",
		`Plan |||UPDATES: {"budget": 10} ||| suite`: "Plan  suite",
	}
	for in, want := range cases {
		ex := ExtractUpdates(in)
		assert.Equal(t, want, ex.Visible, in)
		assert.NotContains(t, ex.Visible, "|", in)
		require.NotNil(t, ex.Updates.Budget, in)
		assert.Equal(t, 10.0, *ex.Updates.Budget, in)
	}
}

func TestExtractUpdates_SanitizationDropsBadFields(t *testing.T) {
	ex := ExtractUpdates(`x|||UPDATES: {"budget": "beaucoup", "duration": 2.5, "travelers": 0, "startDate": "bientôt", "destination": "  ", "theme": "plage"}|||`)

	u := ex.Updates
	assert.NoError(t, ex.Err)
	assert.True(t, u.Empty())
	assert.ElementsMatch(t, []string{FieldBudget, FieldDuration, FieldTravelers, FieldStartDate, FieldDestination}, u.Rejected)
	assert.Equal(t, json.RawMessage(`"plage"`), u.Unknown["theme"])
}

func TestSanitizeAmount(t *testing.T) {
	cases := map[string]float64{
		`2500`:            2500,
		`"2500"`:          2500,
		`"2 500€"`:        2500,
		`"€1,200"`:        1200,
		`"1 200,50 EUR"`:  1200.5,
		`"environ 800 $"`: 800,
		`1e3`:             1000,
	}
	for raw, want := range cases {
		got, ok := sanitizeAmount(json.RawMessage(raw))
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{`null`, `true`, `"gratuit"`, `-50`, `0`, `"1.2.3"`} {
		_, ok := sanitizeAmount(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}

func TestSanitizeCount(t *testing.T) {
	v, ok := sanitizeCount(json.RawMessage(`"10 jours"`))
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	for _, raw := range []string{`0`, `-2`, `1.5`, `"deux"`, `1e12`} {
		_, ok := sanitizeCount(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}
