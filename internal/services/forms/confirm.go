package forms

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

var successPatterns = []string{
	"gracias",
	"solicitud recibida",
	"application submitted",
	"thank you",
	"hemos recibido",
	"confirmación",
	"confirmacion",
	"éxito",
	"exito",
	"your application",
	"tu solicitud",
	"candidatura recibida",
	"candidatura enviada",
	"successfully submitted",
	"sent successfully",
	"we have received",
	"su candidatura",
	"enhorabuena",
	"felicidades",
	"proceso de selección",
	"nos pondremos en contacto",
	"we will be in touch",
	"we'll be in touch",
	"review your application",
	"application complete",
	"solicitud completada",
	"inscripción realizada",
	"inscripcion realizada",
}

var errorPatterns = []string{
	"error",
	"inténtalo de nuevo",
	"intentalo de nuevo",
	"try again",
	"failed",
	"falló",
	"fallo",
	"something went wrong",
	"algo salió mal",
	"algo salio mal",
	"vuelve a intentar",
	"hubo un problema",
	"no se pudo",
	"could not submit",
	"submission failed",
	"por favor revisa",
	"please review",
	"invalid",
	"inválido",
	"invalido",
	"required field",
	"campo requerido",
	"campo obligatorio",
}

// criticalErrors are decisive on a single hit; other error patterns need two
// distinct matches since words like "error" appear in benign contexts.
var criticalErrors = []string{
	"failed",
	"submission failed",
	"could not submit",
	"fallo",
}

const confirmCheckInterval = 500 * time.Millisecond

// DetectConfirmation watches the page after a submit click and classifies
// the outcome. Signals in precedence order: URL change (overridden to
// error_detected when the new page shows error text), error text, success
// text, form disappearance. An exhausted window is ambiguous, never a
// success. Screenshots bracket the detection window in appDir; the returned
// path is the final one.
func DetectConfirmation(
	ctx context.Context,
	page interfaces.Page,
	appDir string,
	timeout time.Duration,
	logger arbor.ILogger,
) (*models.ConfirmResult, string) {
	_ = os.MkdirAll(appDir, 0o755)

	initialShot := filepath.Join(appDir, "confirmation_start.png")
	if err := page.Screenshot(ctx, initialShot, true); err != nil {
		logger.Warn().Err(err).Str("stage", "initial").Msg("Confirmation screenshot failed")
		initialShot = ""
	}

	initialURL, _ := page.URL(ctx)
	formInitially := formExists(ctx, page)

	result := &models.ConfirmResult{
		Confirmed: false,
		Signal:    models.SignalSubmittedAmbiguous,
	}

	deadline := time.Now().Add(timeout)
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-time.After(confirmCheckInterval):
		}

		currentURL, err := page.URL(ctx)
		if err == nil && currentURL != initialURL {
			logger.Info().
				Str("from_url", initialURL).
				Str("to_url", currentURL).
				Msg("URL changed after submit")
			if hasErrorPattern(pageText(ctx, page)) {
				result.Confirmed = false
				result.Signal = models.SignalErrorDetected
			} else {
				result.Confirmed = true
				result.Signal = models.SignalURLChange
			}
			break loop
		}

		text := pageText(ctx, page)
		if hasErrorPattern(text) {
			logger.Warn().Msg("Error text found after submit")
			result.Confirmed = false
			result.Signal = models.SignalErrorDetected
			break loop
		}
		if hasSuccessPattern(text) {
			logger.Info().Msg("Success text found after submit")
			result.Confirmed = true
			result.Signal = models.SignalSuccessText
			break loop
		}

		if formInitially && !formExists(ctx, page) {
			logger.Info().Msg("Form disappeared after submit")
			result.Confirmed = true
			result.Signal = models.SignalFormGone
			break loop
		}
	}

	finalShot := filepath.Join(appDir, "confirmation.png")
	if err := page.Screenshot(ctx, finalShot, true); err != nil {
		logger.Warn().Err(err).Str("stage", "final").Msg("Confirmation screenshot failed")
		finalShot = initialShot
	}

	logger.Info().
		Bool("confirmed", result.Confirmed).
		Str("signal", result.Signal).
		Msg("Confirmation detection finished")
	return result, finalShot
}

func pageText(ctx context.Context, page interfaces.Page) string {
	text, err := page.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.ToLower(text)
}

func formExists(ctx context.Context, page interfaces.Page) bool {
	var count int
	if err := page.Evaluate(ctx, `document.querySelectorAll('form').length`, &count); err != nil {
		return false
	}
	return count > 0
}

func hasSuccessPattern(text string) bool {
	for _, pattern := range successPatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

func hasErrorPattern(text string) bool {
	for _, critical := range criticalErrors {
		if strings.Contains(text, critical) {
			return true
		}
	}
	hits := 0
	for _, pattern := range errorPatterns {
		if strings.Contains(text, pattern) {
			hits++
		}
	}
	return hits >= 2
}
