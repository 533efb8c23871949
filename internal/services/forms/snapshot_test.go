package forms

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

func TestTakeSnapshot(t *testing.T) {
	page := newFakePage()
	page.setURL("https://careers.example.com/apply/42")
	page.evalRules = []evalRule{
		{fragment: "data-filled-path", result: map[string]string{
			"#email":  "ana.garcia@example.com",
			"#name":   "Ana García López",
			"#accept": "true",
		}},
	}

	snapshot, err := TakeSnapshot(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, "https://careers.example.com/apply/42", snapshot.URL)
	assert.Equal(t, "ana.garcia@example.com", snapshot.Fields["#email"])
	assert.Equal(t, "true", snapshot.Fields["#accept"])
	assert.Len(t, snapshot.Fields, 3)
}

func TestReplayRefillsEveryKind(t *testing.T) {
	page := newFakePage()
	page.checked["#accept"] = false

	pdfPath := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	kind := func(tag, typ string) map[string]string {
		return map[string]string{"tag": tag, "type": typ}
	}
	page.evalRules = []evalRule{
		{fragment: `"#email"`, result: kind("input", "email")},
		{fragment: `"#accept"`, result: kind("input", "checkbox")},
		{fragment: `"#city"`, result: kind("select", "select-one")},
		{fragment: `"#cv"`, result: kind("input", "file")},
		{fragment: `"#gone"`, result: kind("", "")},
	}

	snapshot := &models.FormSnapshot{
		URL: "https://careers.example.com/apply/42",
		Fields: map[string]string{
			"#email":  "ana.garcia@example.com",
			"#accept": "true",
			"#city":   "Madrid",
			"#cv":     pdfPath,
			"#gone":   "value for a removed field",
			"#empty":  "",
		},
	}

	filled, err := Replay(context.Background(), page, snapshot, common.GetLogger())
	require.NoError(t, err)

	assert.Equal(t, 4, filled)
	assert.Equal(t, []string{"ana.garcia@example.com"}, page.fills["#email"])
	assert.Equal(t, "Madrid", page.selected["#city"])
	assert.Equal(t, pdfPath, page.files["#cv"])
	assert.True(t, page.checked["#accept"])
}

func TestReplaySkipsMissingFile(t *testing.T) {
	page := newFakePage()
	page.evalRules = []evalRule{
		{fragment: `"#cv"`, result: map[string]string{"tag": "input", "type": "file"}},
	}

	snapshot := &models.FormSnapshot{
		Fields: map[string]string{"#cv": filepath.Join(t.TempDir(), "missing.pdf")},
	}

	filled, err := Replay(context.Background(), page, snapshot, common.GetLogger())
	require.NoError(t, err)

	assert.Zero(t, filled)
	assert.Empty(t, page.files)
}

func TestVerifyFieldsReportsMismatches(t *testing.T) {
	page := newFakePage()
	page.evalRules = []evalRule{
		{fragment: `"#email"`, result: "ana.garcia@example.com"},
		{fragment: `"#name"`, result: "Cambiado"},
	}

	snapshot := &models.FormSnapshot{
		Fields: map[string]string{
			"#email": "ana.garcia@example.com",
			"#name":  "Ana García López",
		},
	}

	mismatches := VerifyFields(context.Background(), page, snapshot)

	require.Len(t, mismatches, 1)
	assert.Equal(t, "#name", mismatches[0].Ref)
	assert.Equal(t, "Ana García López", mismatches[0].Expected)
	assert.Equal(t, "Cambiado", mismatches[0].Actual)
}
