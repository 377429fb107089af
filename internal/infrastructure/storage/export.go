package storage

import (
	"bufio"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// ExportActivities writes rows to w as gzip-compressed JSON lines
func ExportActivities(w io.Writer, rows []types.StoredActivity) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	for _, row := range rows {
		line, err := sonic.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode activity %d: %w", row.ID, err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// ReadExport decodes an ExportActivities stream
func ReadExport(r io.Reader) ([]types.StoredActivity, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer zr.Close()

	var out []types.StoredActivity
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var row types.StoredActivity
		if err := sonic.Unmarshal(sc.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("decode export line: %w", err)
		}
		out = append(out, row)
	}
	return out, sc.Err()
}
