package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

const validResponse = `{
	"risk_level": "high",
	"urgency_level": "medium",
	"indicators": {"hopelessness": 0.8, "isolation": "mentioned"},
	"key_concerns": ["expressed hopelessness"],
	"summary": "User expressed feelings of hopelessness during the check-in.",
	"recommendations": ["Reach out to a trusted friend", "Schedule a therapy session"],
	"care_person_alert": "",
	"crisis_intervention": false
}`

func TestClassify_validResponse(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{response: validResponse}
	c := NewLLMClassifier(llm, 3, nil)

	a, err := c.Classify(context.Background(), "I feel hopeless and alone today", models.SourceTranscript)
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, a.RiskLevel)
	assert.Equal(t, models.RiskMedium, a.UrgencyLevel)
	assert.Equal(t, models.SourceTranscript, a.SourceKind)
	assert.NotEmpty(t, a.Summary)
	assert.Len(t, a.Recommendations, 2)
	assert.Equal(t, 0.8, a.Indicators["hopelessness"])
	assert.Equal(t, 1, llm.calls)
}

func TestClassify_fencedResponse(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{response: "```json\n" + validResponse + "\n```"}
	c := NewLLMClassifier(llm, 3, nil)

	a, err := c.Classify(context.Background(), "I feel hopeless and alone today", models.SourceTranscript)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, a.RiskLevel)
}

func TestClassify_insufficientInput(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{response: validResponse}
	c := NewLLMClassifier(llm, 3, nil)

	_, err := c.Classify(context.Background(), "ok", models.SourceTranscript)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindInsufficientInput))
	assert.Equal(t, 0, llm.calls, "provider must not be called for short input")
}

func TestClassify_providerError(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{err: errors.New("upstream unavailable")}
	c := NewLLMClassifier(llm, 3, nil)

	_, err := c.Classify(context.Background(), "some longer check-in text here", models.SourceTranscript)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindClassification))
}

func TestClassify_badResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I'm sorry, I can't help with that."},
		{"unknown risk tier", `{"risk_level":"severe","urgency_level":"high","summary":"s","recommendations":[]}`},
		{"unknown urgency tier", `{"risk_level":"high","urgency_level":"extreme","summary":"s","recommendations":[]}`},
		{"missing summary", `{"risk_level":"high","urgency_level":"high","summary":"  ","recommendations":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewLLMClassifier(&fakeLLM{response: tt.response}, 3, nil)
			_, err := c.Classify(context.Background(), "some longer check-in text here", models.SourceTranscript)
			require.Error(t, err)
			assert.True(t, utils.IsKind(err, utils.KindClassification))
			assert.Equal(t, "bad_response", utils.StageReason(err))
		})
	}
}

func TestClassify_defaultsAndNormalization(t *testing.T) {
	t.Parallel()

	// No urgency, nil recommendations, mixed-case tier.
	llm := &fakeLLM{response: `{"risk_level":"Critical","summary":"Immediate concern.","recommendations":null}`}
	c := NewLLMClassifier(llm, 3, nil)

	a, err := c.Classify(context.Background(), "text long enough to classify", models.SourceOnboarding)
	require.NoError(t, err)
	assert.Equal(t, models.RiskCritical, a.RiskLevel)
	assert.Equal(t, models.RiskCritical, a.UrgencyLevel, "urgency defaults to risk level")
	require.NotNil(t, a.Recommendations)
	assert.Empty(t, a.Recommendations)
}

func TestClassify_promptSelectsSourceKind(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{response: validResponse}
	c := NewLLMClassifier(llm, 3, nil)

	_, err := c.Classify(context.Background(), "questionnaire answer text here", models.SourceOnboarding)
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, "onboarding questionnaire")

	_, err = c.Classify(context.Background(), "voice check-in transcript text", models.SourceTranscript)
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, "transcript of a voice check-in")
}
