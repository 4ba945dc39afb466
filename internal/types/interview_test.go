//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhase_Order(t *testing.T) {
	phases := AllPhases()
	for i := 1; i < len(phases); i++ {
		assert.Greater(t, phases[i].Rank(), phases[i-1].Rank(), "%s should come after %s", phases[i], phases[i-1])
	}

	assert.True(t, PhaseEvaluated.AtLeast(PhaseCompleted))
	assert.True(t, PhaseCompleted.AtLeast(PhaseCompleted))
	assert.False(t, PhaseInProgress.AtLeast(PhaseCompleted))
	assert.False(t, Phase("bogus").AtLeast(PhaseInit))
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("in_progress")
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, p)

	_, err = ParsePhase("IN_PROGRESS")
	assert.Error(t, err)
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		input   string
		want    Recommendation
		wantErr bool
	}{
		{"hire", RecommendationHire, false},
		{"maybe", RecommendationMaybe, false},
		{"consider_junior", RecommendationConsiderJunior, false},
		{"consider_for_junior", RecommendationConsiderJunior, false},
		{"no_hire", RecommendationNoHire, false},
		{"strong_hire", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRecommendation(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreBreakdown_TotalAndValidate(t *testing.T) {
	b := ScoreBreakdown{TechnicalKnowledge: 30, ProblemSolving: 20, SystemDesign: 15, Communication: 8, Awareness: 4}
	assert.Equal(t, 77.0, b.Total())
	assert.NoError(t, b.Validate())

	b.SystemDesign = 21
	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemDesign")

	b.SystemDesign = -1
	assert.Error(t, b.Validate())
}

func TestEvaluation_Validate(t *testing.T) {
	eval := &Evaluation{
		OverallScore:   77,
		ScoreBreakdown: ScoreBreakdown{TechnicalKnowledge: 30, ProblemSolving: 20, SystemDesign: 15, Communication: 8, Awareness: 4},
		Recommendation: RecommendationHire,
	}
	assert.NoError(t, eval.Validate())

	eval.OverallScore = 80
	assert.ErrorContains(t, eval.Validate(), "does not match")

	eval.OverallScore = 77
	eval.Recommendation = "yes"
	assert.Error(t, eval.Validate())
}

func TestSession_OwnedBy(t *testing.T) {
	owner := uuid.New()
	s := Session{CandidateID: &owner}
	assert.True(t, s.OwnedBy(owner))
	assert.False(t, s.OwnedBy(uuid.New()))

	anon := Session{}
	assert.True(t, anon.OwnedBy(uuid.Nil))
	assert.False(t, anon.OwnedBy(owner))
}

func TestResource_JSONUsesURLKey(t *testing.T) {
	data, err := json.Marshal(Resource{Type: "book", Title: "DDIA", Locator: "https://example.com/ddia"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"url":"https://example.com/ddia"`)
}

func TestTurnMetadata_Clone(t *testing.T) {
	var nilMeta *TurnMetadata
	assert.Nil(t, nilMeta.Clone())

	orig := &TurnMetadata{Rationale: "drill into scaling", Difficulty: "hard", Hints: []string{"sharding"}}
	cp := orig.Clone()
	require.NotSame(t, orig, cp)
	cp.Hints[0] = "replication"
	cp.Difficulty = "easy"

	assert.Equal(t, []string{"sharding"}, orig.Hints)
	assert.Equal(t, "hard", orig.Difficulty)
	assert.Nil(t, (&TurnMetadata{}).Clone().Hints)
}
