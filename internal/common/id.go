package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewApplicationID generates a unique application ID with the "app_" prefix
// Format: app_<uuid>
func NewApplicationID() string {
	return "app_" + uuid.New().String()
}

// NewPostingID generates a unique posting ID with the "post_" prefix
func NewPostingID() string {
	return "post_" + uuid.New().String()
}

// NewRunID generates a unique source-run ID with the "run_" prefix
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewEventID generates a unique audit-event ID with the "evt_" prefix
func NewEventID() string {
	return "evt_" + uuid.New().String()
}

// MakeExternalID derives a deterministic external ID for sources that do not
// provide their own. The hash covers site, title, company, location and the
// date prefix (first 10 chars, i.e. YYYY-MM-DD), all lowercased.
func MakeExternalID(site, title, company, location, date string) string {
	if len(date) > 10 {
		date = date[:10]
	}
	raw := strings.ToLower(fmt.Sprintf("%s|%s|%s|%s|%s", site, title, company, location, date))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
