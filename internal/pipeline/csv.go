package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

const utf8BOM = "\ufeff"

// assetColumns are the input columns the rating rules read. Other columns are
// carried through untouched.
type assetColumns struct {
	AssetType          string `csv:"assetType"`
	InstalledDate      string `csv:"installedDate"`
	LastMaintainedDate string `csv:"lastMaintainedDate"`
	FCIIndex           string `csv:"fciIndex"`
	RRIndex            string `csv:"rrIndex"`
	Lat                string `csv:"lat"`
	Lng                string `csv:"lng"`
}

// inputRow is one decoded data row.
type inputRow struct {
	line   int
	assets assetColumns
	values []string
}

// outputRow fixes the column order and titles of the generated CSV.
type outputRow struct {
	AssetType          string `csv:"Asset Type"`
	InstalledDate      string `csv:"Installation Date"`
	LastMaintainedDate string `csv:"Last Maintained Date"`
	FCIIndex           string `csv:"FCI Index"`
	RRIndex            string `csv:"Retro-reflectivity Level"`
	Rating             string `csv:"Rating"`
	Lat                string `csv:"Latitude"`
	Lng                string `csv:"Longitude"`
}

// headerWidthReader pads short records and truncates long ones to the header
// width so a ragged row is decoded instead of failing the batch.
type headerWidthReader struct {
	r     *csv.Reader
	width int
}

func (h *headerWidthReader) Read() ([]string, error) {
	record, err := h.r.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case len(record) < h.width:
		record = append(record, make([]string, h.width-len(record))...)
	case len(record) > h.width:
		record = record[:h.width]
	}
	return record, nil
}

// parseRows decodes a whole CSV document. The first record is the header;
// header cells are trimmed and a leading BOM is dropped. Data rows are fitted
// to the header width. An empty document yields no rows.
func parseRows(r io.Reader) ([]string, []inputRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	header = normalizeHeader(header)

	dec, err := csvutil.NewDecoder(&headerWidthReader{r: cr, width: len(header)}, header...)
	if err != nil {
		return nil, nil, fmt.Errorf("create csv decoder: %w", err)
	}

	var rows []inputRow //nolint:prealloc // row count unknown until EOF
	for {
		var cols assetColumns
		if err := dec.Decode(&cols); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("decode csv row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, inputRow{
			line:   line,
			assets: cols,
			values: append([]string(nil), dec.Record()...),
		})
	}
	return header, rows, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// writeRows encodes rated rows with the fixed output columns. The header is
// written even when there are no rows.
func writeRows(w io.Writer, rows []outputRow) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(outputRow{}); err != nil {
		return fmt.Errorf("encode csv header: %w", err)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
