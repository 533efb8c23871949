package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

func TestDetectFields(t *testing.T) {
	page := newFakePage()
	page.evalRules = []evalRule{
		{fragment: "getLabel", result: []map[string]any{
			{
				"tag": "input", "type": "email", "name": "email",
				"label": "Correo electrónico", "required": true,
				"options": []string{}, "ref": "#email", "visible": true, "value": "",
			},
			{
				"tag": "select", "type": "select", "name": "city",
				"label": "Ciudad", "required": false,
				"options": []string{"Madrid", "Barcelona"},
				"ref":     "select[name=\"city\"]", "visible": true, "value": "",
			},
		}},
	}

	fields, err := DetectFields(context.Background(), page, common.GetLogger())
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, models.FieldEmail, fields[0].Type)
	assert.Equal(t, "Correo electrónico", fields[0].Label)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "#email", fields[0].Ref)

	assert.Equal(t, models.FieldSelect, fields[1].Type)
	assert.Equal(t, []string{"Madrid", "Barcelona"}, fields[1].Options)
}
