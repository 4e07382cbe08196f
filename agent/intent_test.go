package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/llm"
	llm_mocks "github.com/chronos-hq/chronos-agent/llm/mocks"
)

func TestIntentClassifier_Classify(t *testing.T) {
	testCases := []struct {
		name      string
		utterance string
		response  string
		expected  Intent
	}{
		{
			name:      "create intent",
			utterance: "Let's have coffee tomorrow",
			response:  "CREATE",
			expected:  IntentCreate,
		},
		{
			name:      "delete intent",
			utterance: "Cancel my dentist appointment",
			response:  "DELETE",
			expected:  IntentDelete,
		},
		{
			name:      "edit intent",
			utterance: "Move my meeting to 3pm",
			response:  "EDIT",
			expected:  IntentEdit,
		},
		{
			name:      "unknown intent",
			utterance: "What's the weather like?",
			response:  "UNKNOWN",
			expected:  IntentUnknown,
		},
		{
			name:      "label with whitespace and casing noise",
			utterance: "Schedule a call",
			response:  "  create \n",
			expected:  IntentCreate,
		},
		{
			name:      "fenced label",
			utterance: "Schedule a call",
			response:  "```\nCREATE\n```",
			expected:  IntentCreate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockLLM := &llm_mocks.FakeService{Response: tc.response}
			classifier := NewIntentClassifier(mockLLM, "test-model", zap.NewNop())

			intent, err := classifier.Classify(context.Background(), tc.utterance)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, intent)
			assert.Equal(t, 1, mockLLM.GenerateCallCount)
			assert.Equal(t, "test-model", mockLLM.Requests[0].Model)
		})
	}
}

func TestIntentClassifier_Classify_InvalidLabel(t *testing.T) {
	mockLLM := &llm_mocks.FakeService{Response: "MAYBE"}
	classifier := NewIntentClassifier(mockLLM, "test-model", zap.NewNop())

	intent, err := classifier.Classify(context.Background(), "Schedule lunch")
	assert.True(t, errors.Is(err, ErrInvalidClassification))
	assert.Equal(t, IntentUnknown, intent)
}

func TestIntentClassifier_Classify_TransportError(t *testing.T) {
	mockLLM := &llm_mocks.FakeService{
		GenerateStub: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return "", errors.New("gateway unavailable")
		},
	}
	classifier := NewIntentClassifier(mockLLM, "test-model", zap.NewNop())

	_, err := classifier.Classify(context.Background(), "Schedule lunch")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidClassification))
	assert.Contains(t, err.Error(), "gateway unavailable")
}

func TestIntentClassifier_ClassifyOrUnknown(t *testing.T) {
	t.Run("invalid label becomes unknown without error", func(t *testing.T) {
		mockLLM := &llm_mocks.FakeService{Response: "SOMETHING_ELSE"}
		classifier := NewIntentClassifier(mockLLM, "test-model", zap.NewNop())

		intent, err := classifier.ClassifyOrUnknown(context.Background(), "???")
		require.NoError(t, err)
		assert.Equal(t, IntentUnknown, intent)
	})

	t.Run("transport failure still surfaces", func(t *testing.T) {
		mockLLM := &llm_mocks.FakeService{
			GenerateStub: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
				return "", errors.New("timeout")
			},
		}
		classifier := NewIntentClassifier(mockLLM, "test-model", zap.NewNop())

		_, err := classifier.ClassifyOrUnknown(context.Background(), "Schedule lunch")
		assert.Error(t, err)
	})
}

func TestMutationClassifier_RejectsCreate(t *testing.T) {
	mockLLM := &llm_mocks.FakeService{Response: "CREATE"}
	classifier := NewMutationClassifier(mockLLM, "test-model", zap.NewNop())

	intent, err := classifier.ClassifyOrUnknown(context.Background(), "Make a new meeting")
	require.NoError(t, err)
	assert.Equal(t, IntentUnknown, intent)
}

func TestMutationClassifier_Classify(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		expected Intent
	}{
		{name: "edit", response: "EDIT", expected: IntentEdit},
		{name: "delete", response: "DELETE", expected: IntentDelete},
		{name: "unknown", response: "UNKNOWN", expected: IntentUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockLLM := &llm_mocks.FakeService{Response: tc.response}
			classifier := NewMutationClassifier(mockLLM, "test-model", zap.NewNop())

			intent, err := classifier.Classify(context.Background(), "Cancel my dentist appointment")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, intent)
		})
	}
}
