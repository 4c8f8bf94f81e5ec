package export

import "fmt"

// Dataset defines tabular export content. Rows keep their insertion order.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Append adds a row, rejecting ones whose width does not match the headers.
func (d *Dataset) Append(values ...string) error {
	if len(values) != len(d.Headers) {
		return fmt.Errorf("row has %d values, want %d", len(values), len(d.Headers))
	}
	d.Rows = append(d.Rows, values)
	return nil
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}
