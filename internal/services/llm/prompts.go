package llm

import "fmt"

// Parameterised prompt templates for the CV pipeline. Prompts are written in
// Spanish since the target postings and forms are Spanish-market; the models
// follow the instruction language.

// RewriteExperiencePrompt asks the model to tailor the experience section to
// one posting. The response schema matches documents.rewriteResult.
func RewriteExperiencePrompt(cvJSON, jobTitle, company, description string) string {
	return fmt.Sprintf(`Eres un experto en redacción de currículums para el mercado laboral español.

Adapta la sección de experiencia del siguiente CV al puesto indicado.
Reformula las viñetas para destacar lo relevante al puesto. No inventes
empresas, fechas, tecnologías ni logros que no estén en el CV original.

CV (JSON):
%s

Puesto: %s
Empresa: %s
Descripción del puesto:
%s

Responde SOLO con un objeto JSON con esta forma exacta:
{"experience": [{"title": "...", "company": "...", "start_date": "...", "end_date": "...", "bullets": ["..."]}], "skills_section_text": "..."}`,
		cvJSON, jobTitle, company, truncate(description, 3000))
}

// SummaryPrompt asks for a short professional summary tailored to the posting.
func SummaryPrompt(cvJSON, jobTitle, company string) string {
	return fmt.Sprintf(`Escribe un resumen profesional de 3-4 líneas en español para el
siguiente CV, orientado al puesto de %s en %s. Sé concreto y evita frases
vacías.

CV (JSON):
%s

Responde SOLO con un objeto JSON: {"summary": "..."}`, jobTitle, company, cvJSON)
}

// FabricationCheckPrompt asks the model to compare original and adapted CVs
// for invented content. The response schema matches the validator contract.
func FabricationCheckPrompt(originalJSON, adaptedJSON string) string {
	return fmt.Sprintf(`Compara estos dos CV. El segundo es una adaptación del primero.
Señala cualquier habilidad, tecnología, empresa o logro presente en la
adaptación que NO exista en el original.

CV original (JSON):
%s

CV adaptado (JSON):
%s

Responde SOLO con un objeto JSON:
{"has_fabrication": true|false, "fabricated_skills": ["..."]}`, originalJSON, adaptedJSON)
}

// QualityScorePrompt asks for the three rubric sub-scores on a 0-10 scale.
func QualityScorePrompt(cvText, description string) string {
	return fmt.Sprintf(`Evalúa este CV frente a la oferta de trabajo. Puntúa de 0 a 10:
- ats: compatibilidad con sistemas de filtrado automático (palabras clave, formato)
- relevance: relevancia de la experiencia para la oferta
- language: calidad de redacción y consistencia del idioma

CV:
%s

Oferta:
%s

Responde SOLO con un objeto JSON:
{"ats": 0, "relevance": 0, "language": 0, "comments": "..."}`,
		truncate(cvText, 4000), truncate(description, 2000))
}

// CoverLetterPrompt asks for a short tailored cover letter.
func CoverLetterPrompt(cvJSON, jobTitle, company, description string) string {
	return fmt.Sprintf(`Escribe una carta de presentación breve (150-200 palabras) en español
para el puesto de %s en %s, basada en este CV. Tono profesional y directo,
sin fórmulas arcaicas.

CV (JSON):
%s

Descripción del puesto:
%s

Responde SOLO con un objeto JSON: {"cover_letter": "..."}`,
		jobTitle, company, cvJSON, truncate(description, 2000))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
