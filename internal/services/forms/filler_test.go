package forms

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

func testCV() *models.CVDocument {
	return &models.CVDocument{
		Name:     "Ana García López",
		Email:    "ana.garcia@example.com",
		Phone:    "+34 612 345 678",
		Location: "Madrid, España",
		LinkedIn: "https://linkedin.com/in/anagarcia",
		Summary:  "Desarrolladora fullstack.",
	}
}

func newTestFiller() *Filler {
	f := NewFiller(common.GetLogger())
	f.sleep = func(time.Duration) {}
	return f
}

func TestResolveSemanticKey(t *testing.T) {
	cases := []struct {
		field models.FormField
		want  string
	}{
		{models.FormField{Label: "Nombre y apellidos", Type: models.FieldText}, "name"},
		{models.FormField{Label: "Correo electrónico", Type: models.FieldText}, "email"},
		{models.FormField{Label: "Tu teléfono de contacto", Type: models.FieldText}, "phone"},
		{models.FormField{Label: "Adjuntar CV", Type: models.FieldFile}, "cv_file"},
		{models.FormField{Label: "Carta de presentación", Type: models.FieldTextarea}, "cover_letter"},
		{models.FormField{Label: "Pretensión salarial", Type: models.FieldText}, "salary_expectation"},
		{models.FormField{Label: "", Name: "candidate_linkedin", Type: models.FieldText}, "linkedin"},
		{models.FormField{Label: "", Name: "", Type: models.FieldTel}, "phone"},
		{models.FormField{Label: "", Name: "", Type: models.FieldEmail}, "email"},
		{models.FormField{Label: "Referencia interna", Type: models.FieldText}, "referencia interna"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveSemanticKey(tc.field), "label=%q name=%q", tc.field.Label, tc.field.Name)
	}
}

func TestFillFormTextAndEmail(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#name", Type: models.FieldText, Label: "Nombre completo", Visible: true},
		{Ref: "#email", Type: models.FieldEmail, Label: "Email", Visible: true},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "", "")
	require.NoError(t, err)

	// Short text values go through fill after a clearing fill.
	require.Len(t, page.fills["#name"], 2)
	assert.Equal(t, "", page.fills["#name"][0])
	assert.Equal(t, "Ana García López", page.fills["#name"][1])

	// Email is typed keystroke by keystroke.
	assert.Equal(t, "ana.garcia@example.com", page.typed["#email"])

	assert.Equal(t, map[string]string{
		"#name":  "Ana García López",
		"#email": "ana.garcia@example.com",
	}, filled)
}

func TestFillFormCoverLetterTyped(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#letter", Type: models.FieldTextarea, Label: "Carta de presentación", Visible: true},
	}
	letter := "Estimado equipo, me interesa mucho el puesto."

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), letter, "")
	require.NoError(t, err)

	assert.Equal(t, letter, page.typed["#letter"])
	assert.Equal(t, letter, filled["#letter"])
}

func TestFillFormSkipsHiddenAndUnresolved(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#tracker", Type: models.FieldText, Label: "Email", Visible: false},
		{Ref: "#notes", Type: models.FieldText, Label: "Referencia interna", Visible: true},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "", "")
	require.NoError(t, err)

	assert.Empty(t, filled)
	assert.Empty(t, page.fills)
	assert.Empty(t, page.clicks)
}

func TestFillFormDefaultsAndSelect(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#salary", Type: models.FieldText, Label: "Salario esperado", Visible: true},
		{Ref: "#avail", Type: models.FieldSelect, Label: "Disponibilidad", Visible: true,
			Options: []string{"Inmediata", "En 1 mes", "En 3 meses"}},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "según convenio", filled["#salary"])
	assert.Equal(t, "Inmediata", page.selected["#avail"])
	assert.Equal(t, "Inmediata", filled["#avail"])
}

func TestFillFormSelectWithoutMatchSkipped(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#avail", Type: models.FieldSelect, Label: "Disponibilidad", Visible: true,
			Options: []string{"En 1 mes", "En 3 meses"}},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "", "")
	require.NoError(t, err)

	assert.Empty(t, filled)
	assert.Empty(t, page.selected)
}

func TestFillFormFileUpload(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	pdfPath := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	fields := []models.FormField{
		{Ref: "#cv", Type: models.FieldFile, Label: "Adjuntar CV", Visible: true},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "", pdfPath)
	require.NoError(t, err)

	assert.Equal(t, pdfPath, page.files["#cv"])
	assert.Equal(t, pdfPath, filled["#cv"])
}

func TestFillFormFileMissingSkipped(t *testing.T) {
	page := newFakePage()
	filler := newTestFiller()

	fields := []models.FormField{
		{Ref: "#cv", Type: models.FieldFile, Label: "Adjuntar CV", Visible: true},
	}

	filled, err := filler.FillForm(context.Background(), page, fields, testCV(), "",
		filepath.Join(t.TempDir(), "missing.pdf"))
	require.NoError(t, err)

	assert.Empty(t, filled)
	assert.Empty(t, page.files)
}

func TestMatchOption(t *testing.T) {
	options := []string{"Madrid", "Barcelona", "Valencia"}
	assert.Equal(t, "Madrid", matchOption(options, "madrid"))
	assert.Equal(t, "Madrid", matchOption(options, "Madrid, España"))
	assert.Equal(t, "", matchOption(options, "Sevilla"))
}
