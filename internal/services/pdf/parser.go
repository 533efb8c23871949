package pdf

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ternarybob/solicita/internal/models"
)

// Section header vocabulary, Spanish and English. A line matching one of
// these (short, optionally colon-terminated) starts a new section.
var sectionHeaders = map[string][]string{
	"experience": {
		"experiencia", "experience", "experiencia laboral",
		"experiencia profesional", "work experience", "employment history",
		"historial laboral", "trayectoria profesional",
	},
	"education": {
		"educación", "education", "formación", "formación académica",
		"estudios", "academic background", "titulación",
	},
	"skills": {
		"habilidades", "skills", "competencias", "conocimientos",
		"tecnologías", "technologies", "tech stack", "hard skills",
		"soft skills", "aptitudes",
	},
	"languages": {
		"idiomas", "languages", "lenguas", "language skills",
	},
	"summary": {
		"resumen", "summary", "perfil", "profile", "sobre mí", "about me",
		"objetivo", "objective", "presentación",
	},
}

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneESRe  = regexp.MustCompile(`(?:\+34[\s\-]?)?(?:\d{3}[\s\-]?\d{3}[\s\-]?\d{3}|\d{9})`)
	linkedinRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/([\w\-]+)`)
	githubRe   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/([\w\-]+)`)
	cvYearRe   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	dateRangeRe = regexp.MustCompile(`(?i)([\w\./ ]+\d{4})\s*[-–—]\s*([\w\./ ]+\d{4}|presente|actual|current|present|hoy)`)

	languageLevelRe = regexp.MustCompile(`(?i)(nativo|native|bilingüe|bilingual|avanzado|advanced|` +
		`intermedio|intermediate|básico|basic|elemental|` +
		`c2|c1|b2|b1|a2|a1|fluent|fluido|profesional|professional)`)

	bulletPrefixes = "•-·–▪*○◦"
)

// ParseCVText turns extracted CV text into the canonical document. Parsing is
// heuristic: section headers split the text, PII comes from whole-text
// regexes, experience entries start at date ranges.
func ParseCVText(text string) *models.CVDocument {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	doc := &models.CVDocument{
		Email:    emailRe.FindString(text),
		Phone:    extractPhone(text),
		LinkedIn: extractLinkedIn(text),
		GitHub:   extractGitHub(text),
		Name:     extractName(lines),
	}
	doc.Location = extractLocation(lines, doc.Email, doc.Phone)

	sections := splitSections(lines)
	if s, ok := sections["summary"]; ok {
		doc.Summary = strings.TrimSpace(strings.Join(s, " "))
	}
	if s, ok := sections["experience"]; ok {
		doc.Experience = parseExperience(s)
	}
	if s, ok := sections["education"]; ok {
		doc.Education = parseEducation(s)
	}
	if s, ok := sections["skills"]; ok {
		doc.Skills = parseSkills(s)
	}
	if s, ok := sections["languages"]; ok {
		doc.Languages = parseLanguages(s)
	}
	return doc
}

func splitSections(lines []string) map[string][]string {
	sections := make(map[string][]string)
	current := ""
	for _, line := range lines {
		if key := identifySectionHeader(line); key != "" {
			current = key
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

func identifySectionHeader(line string) string {
	clean := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(line)), ":")
	if len(strings.Fields(clean)) > 5 {
		return ""
	}
	for key, patterns := range sectionHeaders {
		for _, p := range patterns {
			if clean == p {
				return key
			}
		}
	}
	return ""
}

func extractPhone(text string) string {
	match := phoneESRe.FindString(text)
	if match == "" {
		return ""
	}
	digits := strings.NewReplacer(" ", "", "-", "").Replace(match)
	// Normalise bare nine-digit Spanish numbers to +34 format.
	if len(digits) == 9 && strings.ContainsRune("6789", rune(digits[0])) {
		return "+34 " + digits[:3] + " " + digits[3:6] + " " + digits[6:]
	}
	return match
}

func extractLinkedIn(text string) string {
	if m := linkedinRe.FindStringSubmatch(text); m != nil {
		return "https://linkedin.com/in/" + m[1]
	}
	return ""
}

func extractGitHub(text string) string {
	m := githubRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	switch strings.ToLower(m[1]) {
	case "features", "pricing", "about", "login", "signup":
		return ""
	}
	return "https://github.com/" + m[1]
}

// extractName scans the first lines for a 2-5 word title-cased line with no
// digits and no contact info.
func extractName(lines []string) string {
	limit := 5
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if emailRe.MatchString(line) || phoneESRe.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "linkedin") || strings.Contains(lower, "github") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 5 || strings.ContainsFunc(line, unicode.IsDigit) {
			continue
		}
		allCapitalized := true
		for _, w := range words {
			r := []rune(w)
			if len(r) > 0 && !unicode.IsUpper(r[0]) {
				allCapitalized = false
				break
			}
		}
		if allCapitalized {
			return line
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return ""
}

var spanishCities = []string{
	"madrid", "barcelona", "valencia", "sevilla", "bilbao", "málaga",
	"alicante", "granada", "murcia", "palma", "santander", "pamplona",
	"zaragoza", "valladolid", "córdoba", "vigo", "gijón",
}

var cityCountryRe = regexp.MustCompile(`^[A-ZÀ-Ú][a-zA-ZÀ-ú\s]+,\s*[A-ZÀ-Ú][a-zA-ZÀ-ú\s]+$`)

func extractLocation(lines []string, email, phone string) string {
	limit := 15
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		clean := strings.ToLower(line)
		if email != "" && strings.Contains(clean, strings.ToLower(email)) {
			continue
		}
		if phone != "" && strings.Contains(line, phone) {
			continue
		}
		if strings.Contains(clean, "linkedin") || strings.Contains(clean, "github") || strings.Contains(clean, "@") {
			continue
		}
		for _, city := range spanishCities {
			if strings.Contains(clean, city) {
				return line
			}
		}
		if cityCountryRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// parseExperience builds entries: a date range starts a new entry, the first
// short non-bullet line is the company, the next is the title, everything
// else becomes bullets.
func parseExperience(lines []string) []models.ExperienceEntry {
	var entries []models.ExperienceEntry
	var current *models.ExperienceEntry

	flush := func() {
		if current != nil && (current.Company != "" || current.Title != "" || len(current.Bullets) > 0) {
			entries = append(entries, *current)
		}
	}

	for _, line := range lines {
		if m := dateRangeRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &models.ExperienceEntry{
				StartDate: strings.TrimSpace(m[1]),
				EndDate:   strings.TrimSpace(m[2]),
			}
			continue
		}
		if current == nil {
			current = &models.ExperienceEntry{}
		}

		isBullet := strings.IndexAny(line, bulletPrefixes) == 0
		clean := strings.TrimSpace(strings.TrimLeft(line, bulletPrefixes))
		switch {
		case current.Company == "" && !isBullet && len(clean) < 80:
			current.Company = clean
		case current.Title == "" && !isBullet && len(clean) < 100:
			current.Title = clean
		case clean != "":
			current.Bullets = append(current.Bullets, clean)
		}
	}
	flush()
	return entries
}

func parseEducation(lines []string) []models.EducationEntry {
	var entries []models.EducationEntry
	var current *models.EducationEntry

	flush := func() {
		if current != nil && (current.Institution != "" || current.Degree != "") {
			entries = append(entries, *current)
		}
	}

	for _, line := range lines {
		isBullet := strings.IndexAny(line, bulletPrefixes) == 0
		clean := strings.TrimSpace(strings.TrimLeft(line, bulletPrefixes))
		if clean == "" {
			continue
		}
		year := cvYearRe.FindString(line)
		switch {
		case year != "" && !isBullet:
			flush()
			label := strings.TrimSpace(strings.Trim(cvYearRe.ReplaceAllString(line, ""), " -–—|·•/"))
			current = &models.EducationEntry{Degree: label, EndDate: year}
		case current != nil:
			if current.Institution == "" && len(clean) < 120 {
				current.Institution = clean
			}
		case len(clean) < 120:
			current = &models.EducationEntry{Degree: clean}
		}
	}
	flush()
	return entries
}

func parseSkills(lines []string) []string {
	var skills []string
	for _, line := range lines {
		clean := strings.TrimSpace(strings.TrimLeft(line, bulletPrefixes))
		if clean == "" {
			continue
		}
		switch {
		case strings.Contains(clean, ","):
			skills = append(skills, splitTrim(clean, ",")...)
		case strings.Contains(clean, "|"):
			skills = append(skills, splitTrim(clean, "|")...)
		case strings.Contains(clean, "/") && len(clean) < 80:
			skills = append(skills, splitTrim(clean, "/")...)
		case len(clean) < 60:
			skills = append(skills, clean)
		}
	}

	seen := make(map[string]bool, len(skills))
	unique := skills[:0]
	for _, s := range skills {
		lower := strings.ToLower(s)
		if !seen[lower] {
			seen[lower] = true
			unique = append(unique, s)
		}
	}
	return unique
}

func parseLanguages(lines []string) []string {
	var languages []string
	for _, line := range lines {
		clean := strings.TrimSpace(strings.TrimLeft(line, bulletPrefixes))
		if clean == "" {
			continue
		}
		if level := languageLevelRe.FindString(clean); level != "" {
			name := strings.TrimSpace(strings.Trim(languageLevelRe.ReplaceAllString(clean, ""), " -–:,|()"))
			if name != "" {
				languages = append(languages, name+" ("+level+")")
			}
			continue
		}
		if len(clean) < 40 {
			languages = append(languages, clean)
		}
	}
	return languages
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
