package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write writes the header and rows of d to w as comma delimited text, with no index column
func Write(w io.Writer, d *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Columns); err != nil {
		return err
	}
	for _, r := range d.Rows {
		if err := writer.Write(r.Fields); err != nil {
			return fmt.Errorf("error writing line %d: %w", r.Line, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes d to path. The data is written to a temp file in the same directory
// which is renamed over path once complete, so path never holds a partial dataset.
func WriteFile(path string, d *Dataset) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for file, %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create file, %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Write(tmp, d); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data to file, %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file, %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
