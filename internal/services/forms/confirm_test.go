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

func TestDetectConfirmationURLChange(t *testing.T) {
	page := newFakePage()
	page.setFormCount(1)
	dir := t.TempDir()

	time.AfterFunc(700*time.Millisecond, func() {
		page.setURL("https://careers.example.com/apply/thanks")
	})

	result, shot := DetectConfirmation(context.Background(), page, dir, 5*time.Second, common.GetLogger())

	assert.True(t, result.Confirmed)
	assert.Equal(t, models.SignalURLChange, result.Signal)
	assert.Equal(t, filepath.Join(dir, "confirmation.png"), shot)
}

func TestDetectConfirmationURLChangeWithErrorText(t *testing.T) {
	page := newFakePage()
	dir := t.TempDir()

	time.AfterFunc(700*time.Millisecond, func() {
		page.setURL("https://careers.example.com/apply/retry")
		page.setText("La solicitud falló, inténtalo de nuevo")
	})

	result, _ := DetectConfirmation(context.Background(), page, dir, 5*time.Second, common.GetLogger())

	assert.False(t, result.Confirmed)
	assert.Equal(t, models.SignalErrorDetected, result.Signal)
}

func TestDetectConfirmationSuccessText(t *testing.T) {
	page := newFakePage()
	dir := t.TempDir()

	time.AfterFunc(700*time.Millisecond, func() {
		page.setText("Gracias, hemos recibido tu candidatura")
	})

	result, _ := DetectConfirmation(context.Background(), page, dir, 5*time.Second, common.GetLogger())

	assert.True(t, result.Confirmed)
	assert.Equal(t, models.SignalSuccessText, result.Signal)
}

func TestDetectConfirmationErrorText(t *testing.T) {
	page := newFakePage()
	dir := t.TempDir()

	time.AfterFunc(700*time.Millisecond, func() {
		page.setText("Campo requerido: el correo es inválido")
	})

	result, _ := DetectConfirmation(context.Background(), page, dir, 5*time.Second, common.GetLogger())

	assert.False(t, result.Confirmed)
	assert.Equal(t, models.SignalErrorDetected, result.Signal)
}

func TestDetectConfirmationFormGone(t *testing.T) {
	page := newFakePage()
	page.setFormCount(1)
	dir := t.TempDir()

	time.AfterFunc(700*time.Millisecond, func() {
		page.setFormCount(0)
	})

	result, _ := DetectConfirmation(context.Background(), page, dir, 5*time.Second, common.GetLogger())

	assert.True(t, result.Confirmed)
	assert.Equal(t, models.SignalFormGone, result.Signal)
}

func TestDetectConfirmationTimeoutIsAmbiguous(t *testing.T) {
	page := newFakePage()
	page.setFormCount(1)
	dir := t.TempDir()

	result, shot := DetectConfirmation(context.Background(), page, dir, 1200*time.Millisecond, common.GetLogger())

	assert.False(t, result.Confirmed)
	assert.Equal(t, models.SignalSubmittedAmbiguous, result.Signal)

	_, err := os.Stat(filepath.Join(dir, "confirmation_start.png"))
	require.NoError(t, err)
	_, err = os.Stat(shot)
	require.NoError(t, err)
}

func TestHasErrorPattern(t *testing.T) {
	// A lone generic hit is not decisive.
	assert.False(t, hasErrorPattern("invalid"))
	assert.False(t, hasErrorPattern("an error was logged elsewhere"))
	// Two distinct patterns are.
	assert.True(t, hasErrorPattern("campo requerido y correo inválido"))
	// Critical terms are decisive on their own.
	assert.True(t, hasErrorPattern("fallo"))
	assert.True(t, hasErrorPattern("submission failed"))
}

func TestHasSuccessPattern(t *testing.T) {
	assert.True(t, hasSuccessPattern("¡enhorabuena! tu solicitud está en proceso"))
	assert.False(t, hasSuccessPattern("rellena el formulario para continuar"))
}
