package core

// validation.go checks a normalized matrix before any row reaches the store.
//
// Validation happens at two levels:
//  1. File level: the email column must resolve from the header row
//  2. Row level: every data row needs a well-formed email
//
// All errors are collected in one pass so the caller can show the full defect
// list. Validation never modifies the matrix; RemoveInvalidRows and
// InvalidRows build new matrices for the strip-and-re-export flow.

import (
	"regexp"
	"strings"
)

// Validation messages.
const (
	MsgEmailColumnNotFound = "email column not found"
	MsgEmailRequired       = "email required"
	MsgInvalidEmail        = "invalid email format"
)

// emailRegex accepts local@domain.tld shapes without whitespace.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s (trimmed) looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Validate resolves columns from the header row and checks every data row.
// An unresolved email column yields a single row-0 error and no row checks.
func Validate(m Matrix) []ValidationError {
	cm := ResolveColumns(m.Header())
	return ValidateWith(m, cm)
}

// ValidateWith is Validate with an already resolved ColumnMap.
func ValidateWith(m Matrix, cm ColumnMap) []ValidationError {
	emailIdx, ok := cm.Index(FieldEmail)
	if !ok {
		return []ValidationError{{Row: 0, Message: MsgEmailColumnNotFound}}
	}

	var errs []ValidationError
	for i, row := range m.DataRows() {
		if err, bad := validateRow(row, emailIdx, RowNumber(i)); bad {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateRow(row Row, emailIdx, rowNum int) (ValidationError, bool) {
	var email string
	if emailIdx < len(row) {
		email = row[emailIdx].String()
	}

	if strings.TrimSpace(email) == "" {
		return ValidationError{Row: rowNum, Email: email, Message: MsgEmailRequired}, true
	}
	if !ValidEmail(email) {
		return ValidationError{Row: rowNum, Email: email, Message: MsgInvalidEmail}, true
	}
	return ValidationError{}, false
}

// HasFileError reports whether errs contains a file-level (row 0) error.
func HasFileError(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Row == 0 {
			return true
		}
	}
	return false
}

// invalidRowSet indexes the data rows named by errs.
func invalidRowSet(errs []ValidationError) map[int]bool {
	set := make(map[int]bool, len(errs))
	for _, e := range errs {
		if e.Row > 0 {
			set[e.Row] = true
		}
	}
	return set
}

// RemoveInvalidRows returns the header plus every data row not named by errs.
func RemoveInvalidRows(m Matrix, errs []ValidationError) Matrix {
	return filterRows(m, errs, false)
}

// InvalidRows returns the header plus only the data rows named by errs, in
// input order, for export and correction.
func InvalidRows(m Matrix, errs []ValidationError) Matrix {
	return filterRows(m, errs, true)
}

func filterRows(m Matrix, errs []ValidationError, keepInvalid bool) Matrix {
	if len(m) == 0 {
		return Matrix{}
	}
	bad := invalidRowSet(errs)
	out := Matrix{m[0]}
	for i, row := range m.DataRows() {
		if bad[RowNumber(i)] == keepInvalid {
			out = append(out, row)
		}
	}
	return out
}
