package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmailColumnMissing is the structural failure raised when the header row
// has no homeowner email column. It aborts a batch before any row runs.
var ErrEmailColumnMissing = errors.New(MsgEmailColumnNotFound)

// ExtractionError is a row-level failure to read a cell into its typed field.
type ExtractionError struct {
	Field Field
	Value string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract builds the typed record for one data row. Unresolved columns yield
// empty strings and false flags. It fails when the email column is unresolved
// (ErrEmailColumnMissing), when the email cell is blank, or when a date cell
// cannot be read.
func Extract(row Row, cm ColumnMap) (BeneficiaryRecord, error) {
	if !cm.Resolved(FieldEmail) {
		return BeneficiaryRecord{}, ErrEmailColumnMissing
	}

	get := func(f Field) Cell {
		i, ok := cm.Index(f)
		if !ok || i >= len(row) {
			return Empty()
		}
		return row[i]
	}
	text := func(f Field) string {
		return get(f).String()
	}

	rec := BeneficiaryRecord{
		Email:     strings.TrimSpace(text(FieldEmail)),
		FullName:  text(FieldName),
		DOENumber: text(FieldDOENumber),

		Phone:          text(FieldPhone),
		AlternatePhone: text(FieldAlternatePhone),

		Latitude:     text(FieldLatitude),
		Longitude:    text(FieldLongitude),
		Municipality: text(FieldMunicipality),
		Street:       text(FieldStreet),
		City:         text(FieldCity),
		ZipCode:      text(FieldZipCode),

		MailingStreet:       text(FieldMailingStreet),
		MailingCity:         text(FieldMailingCity),
		MailingMunicipality: text(FieldMailingMunicipality),
		MailingZipCode:      text(FieldMailingZipCode),

		ConstructionYear:      text(FieldConstructionYear),
		HouseAge:              text(FieldHouseAge),
		RoofType:              text(FieldRoofType),
		RoofMaterial:          text(FieldRoofMaterial),
		GeographicEligibility: text(FieldGeographicEligibility),

		DisabilityIndividual: text(FieldDisabilityIndividual),
		UnlistedEquipment:    text(FieldUnlistedEquipment),

		flags: make(map[Field]bool, len(ProfileFlags)),
	}

	if rec.Email == "" {
		return BeneficiaryRecord{}, &ExtractionError{Field: FieldEmail, Err: errors.New(MsgEmailRequired)}
	}

	rec.FirstName, rec.LastName = SplitName(rec.FullName)

	dateCell := get(FieldDateAssigned)
	date, err := NormalizeDate(dateCell)
	if err != nil {
		return BeneficiaryRecord{}, &ExtractionError{Field: FieldDateAssigned, Value: dateCell.String(), Err: err}
	}
	rec.DateAssigned = date

	for _, flag := range ProfileFlags {
		rec.flags[flag.Field] = ToBool(get(flag.Field))
	}

	return rec, nil
}

// ExtractAt is Extract for the data row at dataIndex, stamping its
// spreadsheet row number on the record.
func ExtractAt(row Row, cm ColumnMap, dataIndex int) (BeneficiaryRecord, error) {
	rec, err := Extract(row, cm)
	if err != nil {
		return BeneficiaryRecord{}, err
	}
	rec.RowNumber = RowNumber(dataIndex)
	return rec, nil
}

// NewRecord builds a record from already-typed values, for callers that do not
// start from a spreadsheet row. Flags not listed are false.
func NewRecord(rec BeneficiaryRecord, flags map[Field]bool) BeneficiaryRecord {
	rec.flags = make(map[Field]bool, len(flags))
	for f, v := range flags {
		rec.flags[f] = v
	}
	if rec.FirstName == "" && rec.LastName == "" {
		rec.FirstName, rec.LastName = SplitName(rec.FullName)
	}
	return rec
}

// Flags returns a copy of the record's flag values.
func (r BeneficiaryRecord) Flags() map[Field]bool {
	out := make(map[Field]bool, len(r.flags))
	for f, v := range r.flags {
		out[f] = v
	}
	return out
}
