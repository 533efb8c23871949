package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			in:   `{"summary": "ok"}`,
			want: `{"summary": "ok"}`,
		},
		{
			name: "object wrapped in prose",
			in:   "Claro, aquí tienes:\n```json\n{\"a\": 1}\n```\nEspero que sirva.",
			want: `{"a": 1}`,
		},
		{
			name: "nested braces",
			in:   `prefix {"outer": {"inner": [1, 2]}} suffix`,
			want: `{"outer": {"inner": [1, 2]}}`,
		},
		{
			name: "braces inside strings are ignored",
			in:   `{"text": "uses { and } freely", "n": 1}`,
			want: `{"text": "uses { and } freely", "n": 1}`,
		},
		{
			name:    "no object",
			in:      "lo siento, no puedo",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			in:      `{"a": 1`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
