package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV serialises a report table. Each section is written as a header
// row followed by its rows; the summary follows as Metric/Value pairs.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	multi := len(t.Sections) > 1
	for i, section := range t.Sections {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return err
			}
		}
		if multi {
			if err := writer.Write([]string{section.Name}); err != nil {
				return err
			}
		}
		if err := writer.Write(section.Columns); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	if err := writer.Write([]string{}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Period", t.Period}); err != nil {
		return err
	}
	for _, pair := range t.Summary {
		if err := writer.Write([]string{pair.Label, pair.Value}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
