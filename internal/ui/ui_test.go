package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumbered(t *testing.T) {
	got := numbered([]string{"Fight Club (1999) [movie]", "Tab\tand\nnewline"})
	assert.Equal(t, "0\tFight Club (1999) [movie]\n1\tTab and newline\n", got)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		n       int
		want    int
		wantErr bool
	}{
		{"first", "0\tFight Club\n", 2, 0, false},
		{"second", "1\tSe7en", 2, 1, false},
		{"out of range", "5\tnope", 2, -1, true},
		{"negative", "-1\tnope", 2, -1, true},
		{"not a number", "x\tnope", 2, -1, true},
		{"empty", "  \n", 2, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.out, tt.n)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelectionEmptyIsCancel(t *testing.T) {
	_, err := parseSelection("", 3)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestSelectRejectsEmpty(t *testing.T) {
	_, err := Select("pick", nil)
	assert.Error(t, err)
}
