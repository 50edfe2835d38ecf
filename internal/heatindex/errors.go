package heatindex

import "fmt"

// ShapeMismatchError reports rasters (or a zone mask) that are not co-registered.
type ShapeMismatchError struct {
	Name     string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s is %dx%d, want %dx%d", e.Name, e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

// InvalidParameterError reports a parameter outside its allowed range.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

// EmptyRasterError is returned when an aggregation has no valid cells.
type EmptyRasterError struct {
	Op string
}

func (e *EmptyRasterError) Error() string {
	return fmt.Sprintf("%s: no valid cells", e.Op)
}

// OutOfRangeError reports an NDVI value outside [-1, 1] reaching the clamp logic.
type OutOfRangeError struct {
	Field string
	Value float64
	Row   int
	Col   int
}

func (e *OutOfRangeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s=%v outside [-1,1]", e.Field, e.Value)
	}
	return fmt.Sprintf("%s=%v at (%d,%d) outside [-1,1]", e.Field, e.Value, e.Row, e.Col)
}
