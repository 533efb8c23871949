package models

// CVDocument is the structured CV used by the document pipeline. The
// canonical document is parsed once from the master PDF; adapted copies are
// produced per application.
type CVDocument struct {
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Location         string            `json:"location,omitempty"`
	LinkedIn         string            `json:"linkedin,omitempty"`
	GitHub           string            `json:"github,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	Experience       []ExperienceEntry `json:"experience"`
	Education        []EducationEntry  `json:"education,omitempty"`
	Skills           []string          `json:"skills,omitempty"`
	SkillsSectionText string           `json:"skills_section_text,omitempty"`
	Languages        []string          `json:"languages,omitempty"`
}

// ExperienceEntry is one role on the CV.
type ExperienceEntry struct {
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date,omitempty"`
	Bullets   []string `json:"bullets,omitempty"`
}

// EducationEntry is one qualification on the CV.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Clone returns a deep copy of the document.
func (d *CVDocument) Clone() *CVDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Experience = make([]ExperienceEntry, len(d.Experience))
	for i, e := range d.Experience {
		e.Bullets = append([]string(nil), e.Bullets...)
		out.Experience[i] = e
	}
	out.Education = append([]EducationEntry(nil), d.Education...)
	out.Skills = append([]string(nil), d.Skills...)
	out.Languages = append([]string(nil), d.Languages...)
	return &out
}
