package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwenzel/shopify-export/pkg/flatten"
)

// ErrNoRows is returned when there is nothing to write. Refusing an empty
// export is the writer's contract, not a failure of the run.
var ErrNoRows = errors.New("no data to save")

// WriteCSV persists rows to a CSV file with a header in column order. Cells
// for columns a row does not carry are written empty. Returns a
// human-readable success message.
func WriteCSV(path string, columns []string, rows []flatten.Row) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}
	if !strings.HasSuffix(path, ".csv") {
		path += ".csv"
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cell(row[col])
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	return fmt.Sprintf("Saved %d rows to %s", len(rows), path), nil
}

// cell renders a scalar row value for CSV output.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
