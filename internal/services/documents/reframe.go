package documents

import (
	"strings"

	"github.com/ternarybob/solicita/internal/models"
)

// profileReframe configures the rule-based reframing step per CV profile.
// title_map rewrites product names into neutral descriptions appropriate for
// the target sector; skills_emphasis floats relevant skills to the front.
type profileReframe struct {
	skillsEmphasis []string
	titleMap       map[string]string
	roleContext    string
}

var profileReframes = map[string]profileReframe{
	"cashier": {
		skillsEmphasis: []string{"customer service", "POS systems", "cash handling", "team coordination"},
		titleMap: map[string]string{
			"Flowence": "retail customer service platform",
			"software": "business application",
		},
		roleContext: "cajero/dependiente en comercio minorista",
	},
	"stocker": {
		skillsEmphasis: []string{"inventory management", "stock control", "warehouse operations", "team coordination"},
		titleMap: map[string]string{
			"Flowence": "sistema de gestión de inventario",
			"software": "herramienta de seguimiento",
		},
		roleContext: "reponedor/mozo de almacén",
	},
	"logistics": {
		skillsEmphasis: []string{"logistics coordination", "inventory tracking", "organizational skills", "process optimization"},
		titleMap: map[string]string{
			"Flowence": "plataforma de gestión operativa",
		},
		roleContext: "mozo de almacén/operario logístico",
	},
	"frontend_dev": {
		skillsEmphasis: []string{"React", "Next.js", "TypeScript", "UI/UX", "responsive design", "REST APIs"},
		roleContext:    "desarrollador frontend React/Next.js",
	},
	"fullstack_dev": {
		skillsEmphasis: []string{"React", "Node.js", "PostgreSQL", "TypeScript", "REST APIs", "Stripe", "JWT"},
		roleContext:    "desarrollador fullstack React/Node.js",
	},
}

// RoleContext returns the Spanish role framing for a profile, falling back to
// the profile key itself.
func RoleContext(profile string) string {
	if r, ok := profileReframes[profile]; ok && r.roleContext != "" {
		return r.roleContext
	}
	return profile
}

// StructuralTransform applies the rule-based reframing for the profile. No
// content is removed, only recontextualised: bullet substitutions from the
// title map and skill reordering with emphasised skills first.
func StructuralTransform(canonical *models.CVDocument, profile string) *models.CVDocument {
	adapted := canonical.Clone()
	reframe := profileReframes[profile]

	for i := range adapted.Experience {
		for j, bullet := range adapted.Experience[i].Bullets {
			for original, replacement := range reframe.titleMap {
				bullet = strings.ReplaceAll(bullet, original, replacement)
			}
			adapted.Experience[i].Bullets[j] = bullet
		}
	}

	adapted.Skills = reorderSkills(adapted.Skills, reframe.skillsEmphasis)
	return adapted
}

// reorderSkills puts skills matching the emphasis list first, preserving the
// original relative order within each group.
func reorderSkills(skills, emphasis []string) []string {
	if len(emphasis) == 0 || len(skills) == 0 {
		return skills
	}
	matches := func(skill string) bool {
		s := strings.ToLower(skill)
		for _, e := range emphasis {
			if strings.Contains(s, strings.ToLower(e)) {
				return true
			}
		}
		return false
	}
	emphasized := make([]string, 0, len(skills))
	others := make([]string, 0, len(skills))
	for _, skill := range skills {
		if matches(skill) {
			emphasized = append(emphasized, skill)
		} else {
			others = append(others, skill)
		}
	}
	return append(emphasized, others...)
}
