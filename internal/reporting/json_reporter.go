// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/gridcheck/api/schemas"
	"github.com/xkilldash9x/gridcheck/internal/grid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes a single indented JSON document.
type JSONReporter struct {
	writer io.WriteCloser
}

func newJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) WriteReport(report *grid.Report) error {
	return r.encode(BuildGridReport(report))
}

func (r *JSONReporter) WriteError(err error) error {
	return r.encode(schemas.ErrorReport{Error: err.Error()})
}

func (r *JSONReporter) encode(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if _, err := r.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.writer.Close()
}
