// Package core provides the business logic for beneficiary imports.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cellKind distinguishes the three shapes a decoded spreadsheet cell can take.
type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellText
	cellNumber
)

// Cell is a single decoded spreadsheet value: empty, text, or number.
// The zero value is an empty cell.
type Cell struct {
	kind cellKind
	text string
	num  float64
}

// Empty returns the explicit empty marker used for missing cells.
func Empty() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: cellText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: cellNumber, num: f} }

// IsEmpty reports whether the cell is the empty marker.
// A text cell holding "" is still text; decoders should use Empty() for blanks.
func (c Cell) IsEmpty() bool { return c.kind == cellEmpty }

// IsNumber reports whether the cell holds a numeric value.
func (c Cell) IsNumber() bool { return c.kind == cellNumber }

// Float returns the numeric value and true for numeric cells.
func (c Cell) Float() (float64, bool) {
	if c.kind != cellNumber {
		return 0, false
	}
	return c.num, true
}

// String renders the cell the way it would appear as text.
// Numbers are rendered without trailing zeros; empty cells render as "".
func (c Cell) String() string {
	switch c.kind {
	case cellText:
		return c.text
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Row is an ordered sequence of cells.
type Row []Cell

// Strings renders every cell of the row as text.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// TextRow builds a row of text cells, mapping "" to the empty marker.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = Empty()
			continue
		}
		row[i] = Text(v)
	}
	return row
}

// Matrix is a decoded sheet. Row 0 is the header row.
type Matrix []Row

// Header returns the header row as strings, or nil for an empty matrix.
func (m Matrix) Header() []string {
	if len(m) == 0 {
		return nil
	}
	return m[0].Strings()
}

// DataRows returns every row after the header.
func (m Matrix) DataRows() []Row {
	if len(m) <= 1 {
		return nil
	}
	return m[1:]
}

// RowNumber converts a zero-based data row index into the 1-based number
// users see in their spreadsheet (the header row is row 1).
func RowNumber(dataIndex int) int {
	return dataIndex + 2
}

// Entity names a record type in the CRM store.
type Entity string

const (
	EntityAccount          Entity = "Accounts"
	EntityContact          Entity = "Contacts"
	EntityEquipmentProfile Entity = "Submodule_Commercial"
	EntityDeal             Entity = "Deals"
)

// Fields is the payload of an insert or update. Keys are the store's API field names.
type Fields map[string]any

// ContactMatch is a contact found by email lookup.
// AccountID is empty when the contact is not linked to an account.
type ContactMatch struct {
	ID        string
	AccountID string
}

// Store is the keyed-entity CRM the pipeline reconciles against.
// Implementations own transport, auth, timeouts and retries.
type Store interface {
	// SearchByEmail returns contacts whose email matches exactly. An empty
	// slice with a nil error means no contact was found.
	SearchByEmail(ctx context.Context, email string) ([]ContactMatch, error)

	// Insert creates a record and returns its id.
	Insert(ctx context.Context, entity Entity, fields Fields) (string, error)

	// Update modifies an existing record. fields must carry "id".
	Update(ctx context.Context, entity Entity, fields Fields) error
}

// BeneficiaryRecord is the typed view of one data row.
// It is built fresh per row by Extract and is not modified afterwards.
type BeneficiaryRecord struct {
	RowNumber int

	// Identity
	Email        string
	FullName     string
	FirstName    string
	LastName     string
	DOENumber    string
	DateAssigned string // YYYY-MM-DD or ""

	// Contact
	Phone          string
	AlternatePhone string

	// Installation location
	Latitude     string
	Longitude    string
	Municipality string
	Street       string
	City         string
	ZipCode      string

	// Mailing address
	MailingStreet       string
	MailingCity         string
	MailingMunicipality string
	MailingZipCode      string

	// Housing eligibility
	ConstructionYear      string
	HouseAge              string
	RoofType              string
	RoofMaterial          string
	GeographicEligibility string

	// Disability
	DisabilityIndividual string
	UnlistedEquipment    string

	flags map[Field]bool
}

// Flag reports the boolean value of an equipment or eligibility flag.
func (r BeneficiaryRecord) Flag(f Field) bool {
	return r.flags[f]
}

// DisplayName is the "first last" name used for accounts, profiles and deals.
func (r BeneficiaryRecord) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// ValidationError is a row-level (or, at row 0, file-level) validation failure.
type ValidationError struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ReconciliationOutcome is the result of reconciling one row.
type ReconciliationOutcome struct {
	RowNumber int    `json:"row"`
	Email     string `json:"email"`
	Success   bool   `json:"success"`

	ContactID string `json:"contactId,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
	DealID    string `json:"dealId,omitempty"`

	// Created lists entities written for this row, in order. On failure these
	// remain in the store; nothing is rolled back.
	Created []Entity `json:"created,omitempty"`

	Error string `json:"error,omitempty"`
}

// RowFailure is one itemized entry of a batch's failure list.
type RowFailure struct {
	RowNumber int    `json:"row"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

// BatchReport is the aggregate result of one batch run.
type BatchReport struct {
	Total     int                     `json:"total"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Failures  []RowFailure            `json:"failures"`
	Outcomes  []ReconciliationOutcome `json:"outcomes"`
	Duration  time.Duration           `json:"duration"`
}

// Summary is the final status line for a completed batch.
func (r BatchReport) Summary() string {
	return fmt.Sprintf("Import complete: %d succeeded, %d failed of %d total records",
		r.Succeeded, r.Failed, r.Total)
}

// ImportPhase indicates the current stage of an import session.
type ImportPhase string

const (
	PhaseStaged   ImportPhase = "staged"
	PhaseBlocked  ImportPhase = "blocked"
	PhaseRunning  ImportPhase = "running"
	PhaseComplete ImportPhase = "complete"
	PhaseFailed   ImportPhase = "failed"
)

// Progress is a snapshot of a running batch, emitted after every row.
type Progress struct {
	ImportID  string      `json:"importId,omitempty"`
	Phase     ImportPhase `json:"phase"`
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Status    string      `json:"status"`
	Error     string      `json:"error,omitempty"`
}

// Fraction returns processed/total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total)
}

// Percent returns the progress as a rounded percentage (0-100).
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Processed*100 + p.Total/2) / p.Total
}

// ProgressFunc receives a snapshot after every processed row.
type ProgressFunc func(Progress)
