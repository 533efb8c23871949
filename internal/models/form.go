package models

// FormFieldType is the closed set of normalised field types.
type FormFieldType string

const (
	FieldText     FormFieldType = "text"
	FieldEmail    FormFieldType = "email"
	FieldTel      FormFieldType = "tel"
	FieldNumber   FormFieldType = "number"
	FieldDate     FormFieldType = "date"
	FieldRange    FormFieldType = "range"
	FieldFile     FormFieldType = "file"
	FieldRadio    FormFieldType = "radio"
	FieldCheckbox FormFieldType = "checkbox"
	FieldTextarea FormFieldType = "textarea"
	FieldSelect   FormFieldType = "select"
)

// FormField is one interactive field as enumerated by the detector.
// Ref is a stable CSS selector usable for later fills.
type FormField struct {
	Tag      string        `json:"tag"`
	Type     FormFieldType `json:"type"`
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Required bool          `json:"required"`
	Options  []string      `json:"options,omitempty"`
	Ref      string        `json:"ref"`
	Visible  bool          `json:"visible"`
	Value    string        `json:"value,omitempty"`
}

// FormSnapshot is the persisted pre-review state of a form: the page URL and
// every field's current value keyed by its stable selector. File inputs carry
// the uploaded source path since the DOM cannot reflect them.
type FormSnapshot struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Confirmation signals.
const (
	SignalURLChange          = "url_change"
	SignalSuccessText        = "success_text"
	SignalFormGone           = "form_gone"
	SignalErrorDetected      = "error_detected"
	SignalSubmittedAmbiguous = "submitted_ambiguous"
)

// ConfirmResult classifies the outcome of a submission attempt.
type ConfirmResult struct {
	Confirmed bool   `json:"confirmed"`
	Signal    string `json:"signal"`
	Detail    string `json:"detail,omitempty"`
}
