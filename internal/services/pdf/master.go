package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/models"
)

// MasterSource loads and parses the master CV PDF into the canonical
// document. The parse result is cached; the master CV does not change while
// the process runs.
type MasterSource struct {
	path    string
	logger  arbor.ILogger
	tempDir string

	mu     sync.Mutex
	cached *models.CVDocument
}

// NewMasterSource creates the source for the master CV at path.
func NewMasterSource(path string, logger arbor.ILogger) *MasterSource {
	tempDir := filepath.Join(os.TempDir(), "solicita-pdf")
	_ = os.MkdirAll(tempDir, 0o755)
	return &MasterSource{path: path, logger: logger, tempDir: tempDir}
}

// CanonicalCV returns the parsed canonical document.
func (m *MasterSource) CanonicalCV(ctx context.Context) (*models.CVDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return m.cached, nil
	}

	text, err := m.extractText()
	if err != nil {
		return nil, err
	}
	doc := ParseCVText(text)
	if doc.Name == "" {
		return nil, fmt.Errorf("master CV at %s parsed without a name", m.path)
	}

	m.logger.Info().
		Str("path", m.path).
		Str("name", doc.Name).
		Int("experience_entries", len(doc.Experience)).
		Int("skills", len(doc.Skills)).
		Msg("Master CV parsed")
	m.cached = doc
	return doc, nil
}

// Validate checks the master CV without caching: the file must exist, parse
// as a PDF and contain at least one page.
func (m *MasterSource) Validate() error {
	if _, err := os.Stat(m.path); err != nil {
		return fmt.Errorf("master CV not found at %s: %w", m.path, err)
	}
	pdfCtx, err := api.ReadContextFile(m.path)
	if err != nil {
		return fmt.Errorf("master CV at %s is not a readable PDF: %w", m.path, err)
	}
	if pdfCtx.PageCount < 1 {
		return fmt.Errorf("master CV at %s has no pages", m.path)
	}
	return nil
}

// extractText pulls page content via pdfcpu into a temp dir and concatenates
// it in page order.
func (m *MasterSource) extractText() (string, error) {
	pdfCtx, err := api.ReadContextFile(m.path)
	if err != nil {
		return "", fmt.Errorf("failed to read master CV: %w", err)
	}

	outDir, err := os.MkdirTemp(m.tempDir, "master")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(m.path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract master CV content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var b strings.Builder
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if text, ok := pageTexts[page]; ok {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}
