package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Answer
		wantErr error
	}{
		{"index", `{"kind":"index","index":2}`, IndexAnswer(2), nil},
		{"index zero", `{"kind":"index","index":0}`, IndexAnswer(0), nil},
		{"index missing", `{"kind":"index"}`, Answer{}, ErrMissingIndex},
		{"index null", `{"kind":"index","index":null}`, Answer{}, ErrMissingIndex},
		{"text", `{"kind":"text","text":"rises"}`, TextAnswer("rises"), nil},
		{"matching", `{"kind":"matching","matches":{"a":"1"}}`, MatchingAnswer(map[string]string{"a": "1"}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Answer
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswer_RoundTripKeepsIndex(t *testing.T) {
	raw, err := json.Marshal(map[string]Answer{"q1": IndexAnswer(0)})
	require.NoError(t, err)

	var decoded map[string]Answer
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, IndexAnswer(0), decoded["q1"])
}
