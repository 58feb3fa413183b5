// Package sheet converts uploaded spreadsheets to and from core.Matrix.
//
// Decoding accepts CSV and XLSX. CSV cells are always text. XLSX cells keep
// their numeric type so date serials reach the date normalizer intact.
// Blank rows at the end of a file are dropped; blank rows between data rows
// are kept so row numbers match the source file.
//
// Encoding writes error extracts and the sample template as XLSX, or an
// error extract as CSV.
package sheet
