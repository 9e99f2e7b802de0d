package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"gridcalc/internal/grid"
)

// Document is the saved form of a session.
type Document struct {
	Name    string        `json:"name"`
	Columns int           `json:"columns"`
	Rows    int           `json:"rows"`
	Cells   []grid.Record `json:"cells"`
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document %q: %w", doc.Name, err)
	}
	return nil
}

// ReadDocument decodes a JSON document.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// SaveDocument writes doc to filename.
func SaveDocument(doc Document, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteDocument(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadDocument reads a document written by SaveDocument.
func LoadDocument(filename string) (Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	doc, err := ReadDocument(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// WriteCSV writes displayed values up to the last non-empty row and column.
func WriteCSV(w io.Writer, g *grid.Grid) error {
	maxR, maxC := -1, -1
	for _, rec := range g.Serialize() {
		if rec.Value.String() == "" {
			continue
		}
		if rec.Row > maxR {
			maxR = rec.Row
		}
		if rec.Col > maxC {
			maxC = rec.Col
		}
	}
	out := make([][]string, maxR+1)
	for r := 0; r <= maxR; r++ {
		row := make([]string, maxC+1)
		for c := 0; c <= maxC; c++ {
			cell, err := g.Get(c, r)
			if err != nil {
				return err
			}
			row[c] = cell.Value().String()
		}
		out[r] = row
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(out); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

// SaveCSV writes grid values to a CSV file.
func SaveCSV(g *grid.Grid, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV turns CSV fields into cell records, classifying each field the
// way a commit would. Input that is not valid UTF-8 is read as ISO-8859-1.
// It also returns the largest row and column index seen, -1 when empty.
func ReadCSV(r io.Reader) ([]grid.Record, int, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, -1, -1, err
	}
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, -1, -1, fmt.Errorf("decode latin-1 CSV: %w", err)
		}
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, -1, -1, err
	}

	var recs []grid.Record
	maxR, maxC := -1, -1
	for rIdx, row := range rows {
		for cIdx, val := range row {
			if val == "" {
				continue
			}
			v, align := grid.Classify(val)
			recs = append(recs, grid.Record{
				Col:   cIdx,
				Row:   rIdx,
				Value: v,
				Style: grid.Style{grid.StyleAlign: align},
			})
			if rIdx > maxR {
				maxR = rIdx
			}
			if cIdx > maxC {
				maxC = cIdx
			}
		}
	}
	return recs, maxR, maxC, nil
}

// LoadCSV reads a CSV file with ReadCSV.
func LoadCSV(filename string) ([]grid.Record, int, int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, -1, -1, err
	}
	defer f.Close()
	return ReadCSV(f)
}
