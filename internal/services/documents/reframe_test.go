package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/solicita/internal/models"
)

func sampleCV() *models.CVDocument {
	return &models.CVDocument{
		Name:  "Ana García",
		Email: "ana@example.com",
		Phone: "+34 600 000 000",
		Experience: []models.ExperienceEntry{
			{
				Title:     "Software Engineer",
				Company:   "Flowence",
				StartDate: "2021",
				EndDate:   "2024",
				Bullets: []string{
					"Built Flowence dashboards used by 40 retail clients",
					"Maintained the software deployment pipeline",
				},
			},
		},
		Skills: []string{"Python", "customer service", "React", "cash handling"},
	}
}

func TestStructuralTransformAppliesTitleMap(t *testing.T) {
	adapted := StructuralTransform(sampleCV(), "cashier")

	bullets := adapted.Experience[0].Bullets
	assert.Contains(t, bullets[0], "retail customer service platform")
	assert.NotContains(t, bullets[0], "Flowence")
	assert.Contains(t, bullets[1], "business application")
}

func TestStructuralTransformReordersSkills(t *testing.T) {
	adapted := StructuralTransform(sampleCV(), "cashier")

	assert.Equal(t, []string{"customer service", "cash handling", "Python", "React"}, adapted.Skills)
}

func TestStructuralTransformLeavesCanonicalUntouched(t *testing.T) {
	canonical := sampleCV()
	_ = StructuralTransform(canonical, "cashier")

	assert.Contains(t, canonical.Experience[0].Bullets[0], "Flowence")
	assert.Equal(t, "Python", canonical.Skills[0])
}

func TestStructuralTransformUnknownProfileIsIdentity(t *testing.T) {
	canonical := sampleCV()
	adapted := StructuralTransform(canonical, "astronaut")

	assert.Equal(t, canonical.Experience, adapted.Experience)
	assert.Equal(t, canonical.Skills, adapted.Skills)
}

func TestRoleContext(t *testing.T) {
	assert.Equal(t, "reponedor/mozo de almacén", RoleContext("stocker"))
	assert.Equal(t, "astronaut", RoleContext("astronaut"))
}
