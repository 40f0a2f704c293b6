package curate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelLengthFilterValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{
			name:     "defaults only",
			settings: map[string]any{},
			wantErr:  false,
		},
		{
			name:     "explicit range",
			settings: map[string]any{"min_chars": 4, "max_chars": 60},
			wantErr:  false,
		},
		{
			name:     "min greater than max",
			settings: map[string]any{"min_chars": 10, "max_chars": 5},
			wantErr:  true,
		},
		{
			name:     "negative min",
			settings: map[string]any{"min_chars": -1},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewLabelLengthFilter()
			err := f.ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLabelLengthFilterApply(t *testing.T) {
	f := NewLabelLengthFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{"max_chars": 20}))

	got := f.Apply(labeled("OK", "Mangrove Tour", "An Extremely Long Listicle Title Here"))
	require.Len(t, got, 1)
	assert.Equal(t, "Mangrove Tour", got[0].Label)
}

func TestLabelLengthFilterCountsRunes(t *testing.T) {
	f := NewLabelLengthFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{"min_chars": 3}))

	// Three runes, nine bytes: must survive a min of 3.
	got := f.Apply(labeled("味の店"))
	assert.Len(t, got, 1)
}

func TestLabelLengthFilterDefaultMin(t *testing.T) {
	f := NewLabelLengthFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{}))

	got := f.Apply(labeled("Go", "Spa"))
	require.Len(t, got, 1)
	assert.Equal(t, "Spa", got[0].Label)
}
