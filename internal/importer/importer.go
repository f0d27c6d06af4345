// Package importer maps positional CSV rows onto chair and estate records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
)

const (
	ChairColumns  = 13
	EstateColumns = 12
)

// RowError reports the first row that could not be mapped. Line is 1-based.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseChairs reads every row of r as a chair:
// id,name,description,thumbnail,price,height,width,depth,color,features,kind,popularity,stock
func ParseChairs(r io.Reader) ([]model.Chair, error) {
	var out []model.Chair
	err := eachRow(r, ChairColumns, func(f *fields) {
		c := model.Chair{
			ID:          f.i64(0),
			Name:        f.str(1),
			Description: f.str(2),
			Thumbnail:   f.str(3),
			Price:       f.i64(4),
			Height:      f.i64(5),
			Width:       f.i64(6),
			Depth:       f.i64(7),
			Color:       f.str(8),
			Features:    f.str(9),
			Kind:        f.str(10),
			Popularity:  f.i64(11),
			Stock:       f.i64(12),
		}
		if f.err == nil && c.Stock < 0 {
			f.err = fmt.Errorf("column 12: negative stock %d", c.Stock)
		}
		out = append(out, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseEstates reads every row of r as an estate:
// id,name,description,thumbnail,address,latitude,longitude,rent,door_height,door_width,features,popularity
func ParseEstates(r io.Reader) ([]model.Estate, error) {
	var out []model.Estate
	err := eachRow(r, EstateColumns, func(f *fields) {
		out = append(out, model.Estate{
			ID:          f.i64(0),
			Name:        f.str(1),
			Description: f.str(2),
			Thumbnail:   f.str(3),
			Address:     f.str(4),
			Latitude:    f.f64(5),
			Longitude:   f.f64(6),
			Rent:        f.i64(7),
			DoorHeight:  f.i64(8),
			DoorWidth:   f.i64(9),
			Features:    f.str(10),
			Popularity:  f.i64(11),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fields keeps the first conversion error so a row maps in one expression.
type fields struct {
	rec []string
	err error
}

func (f *fields) str(i int) string { return f.rec[i] }

func (f *fields) i64(i int) int64 {
	n, err := strconv.ParseInt(f.rec[i], 10, 64)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("column %d: %w", i, err)
	}
	return n
}

func (f *fields) f64(i int) float64 {
	n, err := strconv.ParseFloat(f.rec[i], 64)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("column %d: %w", i, err)
	}
	return n
}

func eachRow(r io.Reader, columns int, fn func(*fields)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return &RowError{Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != columns {
			return &RowError{Line: line, Err: fmt.Errorf("got %d columns, want %d", len(rec), columns)}
		}
		f := &fields{rec: rec}
		fn(f)
		if f.err != nil {
			return &RowError{Line: line, Err: f.err}
		}
	}
}
