// Package panel provides the date-indexed wide table used between fetching and preparation.
package panel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DateLayout formats the row index of assembled panels.
const DateLayout = "2006-01-02"

// Kind is the value type of a column.
type Kind int

const (
	Numeric Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "numeric"
}

// Column is a named vector. Numeric columns use NaN for missing cells,
// text columns use the empty string.
type Column struct {
	Name   string
	Kind   Kind
	Values []float64
	Labels []string
}

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.Kind == Text {
		return len(c.Labels)
	}
	return len(c.Values)
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Text {
		return c.Labels[i] == ""
	}
	return math.IsNaN(c.Values[i])
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// MissingFraction is MissingCount over Len; zero for an empty column.
func (c *Column) MissingFraction() float64 {
	if c.Len() == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(c.Len())
}

// copyCell copies cell src into cell dst.
func (c *Column) copyCell(dst, src int) {
	if c.Kind == Text {
		c.Labels[dst] = c.Labels[src]
		return
	}
	c.Values[dst] = c.Values[src]
}

// ForwardFill propagates the last valid cell into following missing cells.
func (c *Column) ForwardFill() {
	last := -1
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			last = i
		} else if last >= 0 {
			c.copyCell(i, last)
		}
	}
}

// BackwardFill propagates the next valid cell into preceding missing cells.
func (c *Column) BackwardFill() {
	next := -1
	for i := c.Len() - 1; i >= 0; i-- {
		if !c.IsMissing(i) {
			next = i
		} else if next >= 0 {
			c.copyCell(i, next)
		}
	}
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Values != nil {
		out.Values = append([]float64(nil), c.Values...)
	}
	if c.Labels != nil {
		out.Labels = append([]string(nil), c.Labels...)
	}
	return out
}

func (c *Column) selectRows(keep []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Text {
		out.Labels = make([]string, len(keep))
		for i, r := range keep {
			out.Labels[i] = c.Labels[r]
		}
		return out
	}
	out.Values = make([]float64, len(keep))
	for i, r := range keep {
		out.Values[i] = c.Values[r]
	}
	return out
}

// Shape is a (rows, columns) pair.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// Panel is a table of columns sharing one row index.
type Panel struct {
	Index   []string
	Columns []*Column
}

// New creates an empty panel over the given row index.
func New(index []string) *Panel {
	return &Panel{Index: append([]string(nil), index...)}
}

// Shape returns the row and column counts.
func (p *Panel) Shape() Shape {
	return Shape{Rows: len(p.Index), Cols: len(p.Columns)}
}

// ColumnNames returns column names in order.
func (p *Panel) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (p *Panel) Column(name string) (*Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (p *Panel) add(c *Column) error {
	if c.Name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if c.Len() != len(p.Index) {
		return fmt.Errorf("column %s has %d cells, panel has %d rows", c.Name, c.Len(), len(p.Index))
	}
	if _, exists := p.Column(c.Name); exists {
		return fmt.Errorf("duplicate column %s", c.Name)
	}
	p.Columns = append(p.Columns, c)
	return nil
}

// AddNumeric appends a numeric column. Values are not copied.
func (p *Panel) AddNumeric(name string, values []float64) error {
	return p.add(&Column{Name: name, Kind: Numeric, Values: values})
}

// AddText appends a text column. Labels are not copied.
func (p *Panel) AddText(name string, labels []string) error {
	return p.add(&Column{Name: name, Kind: Text, Labels: labels})
}

// MissingCount returns the number of missing cells in the whole panel.
func (p *Panel) MissingCount() int {
	n := 0
	for _, c := range p.Columns {
		n += c.MissingCount()
	}
	return n
}

// Clone returns a deep copy.
func (p *Panel) Clone() *Panel {
	out := New(p.Index)
	out.Columns = make([]*Column, len(p.Columns))
	for i, c := range p.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// SelectRows returns a new panel holding only the given rows, in the given order.
func (p *Panel) SelectRows(keep []int) *Panel {
	index := make([]string, len(keep))
	for i, r := range keep {
		index[i] = p.Index[r]
	}
	out := &Panel{Index: index, Columns: make([]*Column, len(p.Columns))}
	for i, c := range p.Columns {
		out.Columns[i] = c.selectRows(keep)
	}
	return out
}

// SelectColumns returns a new panel sharing no storage with p, keeping columns for which keep is true.
func (p *Panel) SelectColumns(keep func(*Column) bool) *Panel {
	out := New(p.Index)
	for _, c := range p.Columns {
		if keep(c) {
			out.Columns = append(out.Columns, c.clone())
		}
	}
	return out
}

// Matrix converts an all-numeric, gap-free panel into a dense row-major matrix.
func (p *Panel) Matrix() (*mat.Dense, error) {
	rows, cols := len(p.Index), len(p.Columns)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot build matrix from panel of shape %s", p.Shape())
	}
	data := make([]float64, rows*cols)
	for j, c := range p.Columns {
		if c.Kind != Numeric {
			return nil, fmt.Errorf("column %s is %s, not numeric", c.Name, c.Kind)
		}
		for i, v := range c.Values {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("column %s has a missing value at row %s", c.Name, p.Index[i])
			}
			data[i*cols+j] = v
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

// Pick returns a new panel holding copies of the named columns in the given order.
func (p *Panel) Pick(names []string) (*Panel, error) {
	out := New(p.Index)
	for _, name := range names {
		c, ok := p.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %s not found", name)
		}
		out.Columns = append(out.Columns, c.clone())
	}
	return out, nil
}

// FromMatrix builds a numeric panel from a row-major matrix, one name per column.
func FromMatrix(index, names []string, m mat.Matrix) (*Panel, error) {
	rows, cols := m.Dims()
	if rows != len(index) {
		return nil, fmt.Errorf("matrix has %d rows, index has %d", rows, len(index))
	}
	if cols != len(names) {
		return nil, fmt.Errorf("matrix has %d columns, got %d names", cols, len(names))
	}
	p := New(index)
	for j, name := range names {
		if err := p.AddNumeric(name, mat.Col(nil, j, m)); err != nil {
			return nil, err
		}
	}
	return p, nil
}
