package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
)

func TestClickSubmitBySelector(t *testing.T) {
	page := newFakePage()
	page.selectors["[data-testid='submit']"] = true

	err := ClickSubmit(context.Background(), page, common.GetLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"[data-testid='submit']"}, page.clicks)
}

func TestClickSubmitPrefersSubmitTypeButton(t *testing.T) {
	page := newFakePage()
	page.selectors["button[type='submit']"] = true
	page.selectors["#apply"] = true

	err := ClickSubmit(context.Background(), page, common.GetLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"button[type='submit']"}, page.clicks)
}

func TestClickSubmitByVerbText(t *testing.T) {
	page := newFakePage()
	page.evalRules = []evalRule{
		{fragment: "const verbs", result: "#enviar-solicitud"},
	}

	err := ClickSubmit(context.Background(), page, common.GetLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"#enviar-solicitud"}, page.clicks)
}

func TestClickSubmitNotFound(t *testing.T) {
	page := newFakePage()
	page.evalRules = []evalRule{
		{fragment: "const verbs", result: ""},
	}

	err := ClickSubmit(context.Background(), page, common.GetLogger())

	assert.ErrorIs(t, err, ErrSubmitButtonNotFound)
}
