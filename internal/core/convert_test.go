package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ToBool Tests
// ----------------------------------------------------------------------------

func TestToBool(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		// Case-insensitive, untrimmed: the value is lower-cased and compared
		// to "true" as written.
		{name: "lower true", cell: Text("true"), want: true},
		{name: "upper TRUE", cell: Text("TRUE"), want: true},
		{name: "title True", cell: Text("True"), want: true},
		{name: "padded true", cell: Text(" true "), want: false},
		{name: "yes", cell: Text("yes"), want: false},
		{name: "one as text", cell: Text("1"), want: false},
		{name: "one as number", cell: Number(1), want: false},
		{name: "false", cell: Text("false"), want: false},
		{name: "empty", cell: Empty(), want: false},
		{name: "empty text", cell: Text(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBool(tt.cell); got != tt.want {
				t.Errorf("ToBool(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// SplitName Tests
// ----------------------------------------------------------------------------

func TestSplitName(t *testing.T) {
	tests := []struct {
		input     string
		wantFirst string
		wantLast  string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"Madonna", "Madonna", ""},
		{"Juan Pérez", "Juan", "Pérez"},
		{"Juan Carlos Pérez Rivera", "Juan Carlos", "Pérez Rivera"},
		{"Ana Pérez Rivera", "Ana", "Pérez Rivera"},
		{"  Juan   Pérez  ", "Juan", "Pérez"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			first, last := SplitName(tt.input)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.input, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// NormalizeDate Tests
// ----------------------------------------------------------------------------

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		cell    Cell
		want    string
		wantErr bool
	}{
		// Spreadsheet serials
		{name: "serial 2024-01-15", cell: Number(45306), want: "2024-01-15"},
		{name: "serial with time fraction", cell: Number(45306.75), want: "2024-01-15"},
		{name: "serial 2000-01-01", cell: Number(36526), want: "2000-01-01"},
		{name: "zero serial is empty", cell: Number(0), want: ""},
		{name: "negative serial", cell: Number(-5), wantErr: true},

		// Text
		{name: "empty", cell: Empty(), want: ""},
		{name: "blank text", cell: Text("  "), want: ""},
		{name: "US slash", cell: Text("01/15/2024"), want: "2024-01-15"},
		{name: "US slash short", cell: Text("1/5/2024"), want: "2024-01-05"},
		{name: "ISO", cell: Text("2024-01-15"), want: "2024-01-15"},
		{name: "long month", cell: Text("January 15, 2024"), want: "2024-01-15"},
		{name: "short month", cell: Text("Jan 15, 2024"), want: "2024-01-15"},
		{name: "RFC3339 keeps written day", cell: Text("2024-01-15T23:30:00-05:00"), want: "2024-01-15"},
		{name: "two digit year", cell: Text("1/15/24"), want: "2024-01-15"},
		{name: "formula wrapped", cell: Text(`="2024-01-15"`), want: "2024-01-15"},

		// Invalid
		{name: "garbage", cell: Text("next week"), wantErr: true},
		{name: "impossible day", cell: Text("02/30/2024"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.cell)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDate(%q) error = %v, wantErr %v", tt.cell.String(), err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.cell.String(), got, tt.want)
			}
		})
	}
}

func TestNormalizeDate_IndependentOfLocalZone(t *testing.T) {
	orig := time.Local
	defer func() { time.Local = orig }()

	for _, zone := range []string{"America/Puerto_Rico", "Pacific/Kiritimati", "Pacific/Pago_Pago"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			t.Skipf("zone data unavailable: %v", err)
		}
		time.Local = loc

		for _, c := range []Cell{Number(45306), Text("01/15/2024")} {
			got, err := NormalizeDate(c)
			if err != nil {
				t.Fatalf("%s: NormalizeDate(%q) error = %v", zone, c.String(), err)
			}
			if got != "2024-01-15" {
				t.Errorf("%s: NormalizeDate(%q) = %q, want 2024-01-15", zone, c.String(), got)
			}
		}
	}
}

func TestParseDate_TwoDigitPivot(t *testing.T) {
	got, ok := ParseDate("6/1/99")
	if !ok {
		t.Fatal("ParseDate(6/1/99) failed")
	}
	if got.Year() != 1999 {
		t.Errorf("year = %d, want 1999", got.Year())
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{`="00901"`, "00901"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
