package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChoices_Validate(t *testing.T) {
	tests := []struct {
		name    string
		choices UserChoices
		wantErr string
	}{
		{name: "zero value", choices: UserChoices{}},
		{name: "everything on", choices: UserChoices{
			CleanDuplicates: true,
			FillMissing:     true,
			SelectedColumns: []string{"a", "b"},
			ChartRequested:  true,
			ExportFormat:    FormatExcel,
			Export:          true,
		}},
		{name: "bad format", choices: UserChoices{ExportFormat: "pdf"}, wantErr: "export_format must be one of: csv excel"},
		{name: "blank column", choices: UserChoices{SelectedColumns: []string{"a", ""}}, wantErr: "selected_columns[1] must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.choices.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidChoices)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
