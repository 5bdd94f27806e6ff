package schemas

// -- Report Schemas --

// GridReport is the machine-readable result of a successful measurement run.
// Every number is rounded to two decimal places.
type GridReport struct {
	Measurements   []MeasurementResult `json:"measurements"`
	Origin         ElementSummary      `json:"origin"`
	OriginBaseline float64             `json:"originBaseline"`
	DetectedGrid   float64             `json:"detectedGrid"`
	GridSource     string              `json:"gridSource"`
	Tolerance      float64             `json:"tolerance"`
	Passed         int                 `json:"passed"`
	Failed         int                 `json:"failed"`
}

// ElementSummary identifies an element by tag and display text.
type ElementSummary struct {
	Tag      string  `json:"tag"`
	Text     string  `json:"text"`
	Baseline float64 `json:"baseline"`
}

// MeasurementResult is one row of the report.
type MeasurementResult struct {
	Tag       string  `json:"tag"`
	Text      string  `json:"text"`
	Baseline  float64 `json:"baseline"`
	GridLine  float64 `json:"gridLine"`
	GridError float64 `json:"gridError"`
	Pass      bool    `json:"pass"`
}

// ErrorReport is emitted instead of a GridReport when the run fails.
type ErrorReport struct {
	Error string `json:"error"`
}
