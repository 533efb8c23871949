package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

const sampleCVText = `Ana García López
Madrid, España
ana.garcia@example.com
+34 612 345 678
linkedin.com/in/anagarcia
github.com/anagarcia

Resumen
Desarrolladora fullstack con cinco años de experiencia en productos web.

Experiencia
ene 2021 - actual
Flowence
Desarrolladora Fullstack
- Desarrollé paneles de control para clientes minoristas
- Mantuve la infraestructura de despliegue

mar 2019 - dic 2020
Acme Software
Desarrolladora Backend
- Construí APIs REST con Node.js

Formación
Grado en Ingeniería Informática 2018
Universidad Complutense de Madrid

Habilidades
React, Node.js, PostgreSQL
TypeScript | Docker

Idiomas
Español nativo
Inglés B2
`

func TestParseCVText(t *testing.T) {
	doc := ParseCVText(sampleCVText)

	assert.Equal(t, "Ana García López", doc.Name)
	assert.Equal(t, "ana.garcia@example.com", doc.Email)
	assert.Equal(t, "+34 612 345 678", doc.Phone)
	assert.Equal(t, "https://linkedin.com/in/anagarcia", doc.LinkedIn)
	assert.Equal(t, "https://github.com/anagarcia", doc.GitHub)
	assert.Contains(t, doc.Location, "Madrid")
	assert.Contains(t, doc.Summary, "cinco años")

	require.Len(t, doc.Experience, 2)
	assert.Equal(t, "Flowence", doc.Experience[0].Company)
	assert.Equal(t, "Desarrolladora Fullstack", doc.Experience[0].Title)
	assert.Equal(t, "ene 2021", doc.Experience[0].StartDate)
	assert.Equal(t, "actual", doc.Experience[0].EndDate)
	assert.Len(t, doc.Experience[0].Bullets, 2)
	assert.Equal(t, "Acme Software", doc.Experience[1].Company)

	require.Len(t, doc.Education, 1)
	assert.Equal(t, "Grado en Ingeniería Informática", doc.Education[0].Degree)
	assert.Equal(t, "2018", doc.Education[0].EndDate)
	assert.Equal(t, "Universidad Complutense de Madrid", doc.Education[0].Institution)

	assert.Equal(t, []string{"React", "Node.js", "PostgreSQL", "TypeScript", "Docker"}, doc.Skills)
	assert.Equal(t, []string{"Español (nativo)", "Inglés (B2)"}, doc.Languages)
}

func TestParseCVTextNormalizesBarePhone(t *testing.T) {
	doc := ParseCVText("Juan Pérez Gómez\njuan@example.com\n612345678\n")
	assert.Equal(t, "+34 612 345 678", doc.Phone)
}

func TestParseCVTextDeduplicatesSkills(t *testing.T) {
	doc := ParseCVText("Nombre Apellido\nHabilidades\nReact, react, Node.js\n")
	assert.Equal(t, []string{"React", "Node.js"}, doc.Skills)
}

func TestRenderCVWritesPDF(t *testing.T) {
	renderer := NewRenderer(common.GetLogger())
	doc := &models.CVDocument{
		Name:    "Ana García",
		Email:   "ana@example.com",
		Phone:   "+34 600 000 000",
		Summary: "Desarrolladora fullstack.",
		Experience: []models.ExperienceEntry{
			{Title: "Desarrolladora", Company: "Flowence", StartDate: "2021", EndDate: "2024",
				Bullets: []string{"Construí paneles de control", "Mantuve integraciones de pago"}},
		},
		Education: []models.EducationEntry{
			{Degree: "Grado en Informática", Institution: "UCM", EndDate: "2018"},
		},
		Skills:    []string{"React", "Node.js"},
		Languages: []string{"Español (nativo)"},
	}

	outPath := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, renderer.RenderCV(doc, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, len(data) > 500)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestMasterSourceValidateMissingFile(t *testing.T) {
	source := NewMasterSource(filepath.Join(t.TempDir(), "cv_master.pdf"), common.GetLogger())
	assert.Error(t, source.Validate())
}

func TestMasterSourceValidateRendered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv_master.pdf")
	renderer := NewRenderer(common.GetLogger())
	require.NoError(t, renderer.RenderCV(&models.CVDocument{Name: "Ana García"}, path))

	source := NewMasterSource(path, common.GetLogger())
	assert.NoError(t, source.Validate())
}
