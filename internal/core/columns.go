package core

// columns.go maps free-text spreadsheet headers to semantic fields.
//
// Each field has one rule: a header matches when its normalized, lower-cased
// text contains every Require substring and none of the Forbid substrings.
// Forbid sets keep near-duplicate headers apart, e.g. "City" vs "City (Mailing)"
// or "Humidifier" vs "Dehumidifier", so a rule never depends on header order.

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names a semantic slot of a beneficiary row.
type Field string

const (
	FieldDateAssigned   Field = "date_assigned"
	FieldDOENumber      Field = "doe_number"
	FieldName           Field = "name"
	FieldLatitude       Field = "latitude"
	FieldLongitude      Field = "longitude"
	FieldPhone          Field = "phone"
	FieldAlternatePhone Field = "alternate_phone"
	FieldEmail          Field = "email"

	FieldMunicipality Field = "municipality"
	FieldStreet       Field = "street"
	FieldCity         Field = "city"
	FieldZipCode      Field = "zip_code"

	FieldMailingStreet       Field = "mailing_street"
	FieldMailingCity         Field = "mailing_city"
	FieldMailingMunicipality Field = "mailing_municipality"
	FieldMailingZipCode      Field = "mailing_zip_code"

	FieldConstructionYear      Field = "construction_year"
	FieldHouseAge              Field = "house_age"
	FieldRoofType              Field = "roof_type"
	FieldRoofMaterial          Field = "roof_material"
	FieldGeographicEligibility Field = "geographic_eligibility"

	FieldDisabilityIndividual Field = "disability_individual"
	FieldUnlistedEquipment    Field = "unlisted_equipment"

	// Eligibility flags carried on the equipment profile.
	FieldEnergyEligibility Field = "energy_dependent_eligibility"
	FieldNoConsentPictures Field = "no_consent_pictures"

	// Medical equipment flags.
	FieldAirConditioner         Field = "air_conditioner"
	FieldAirPurifier            Field = "air_purifier"
	FieldAirMattress            Field = "air_mattress"
	FieldAsthmaTherapy          Field = "asthma_therapy_machine"
	FieldAtHomeDialysis         Field = "at_home_dialysis_machine"
	FieldBiPAP                  Field = "bipap_machine"
	FieldSleepApnea             Field = "sleep_apnea_machine"
	FieldDehumidifier           Field = "dehumidifier"
	FieldDialysisMachine        Field = "dialysis_machine"
	FieldElectricCrane          Field = "electric_crane"
	FieldPhysicalTherapy        Field = "physical_therapy_machine"
	FieldPowerLiftRecliner      Field = "power_lift_recliner"
	FieldVitalSignsMonitor      Field = "vital_signs_monitor"
	FieldElectricBed            Field = "electric_bed"
	FieldElectricScooter        Field = "electric_scooter"
	FieldElectricWheelchair     Field = "electric_wheelchair"
	FieldEnteralFeedingPump     Field = "enteral_feeding_pump"
	FieldEnteralFeedingMachine  Field = "enteral_feeding_machine"
	FieldExternalDefibrillator  Field = "external_defibrillator"
	FieldFFTMachine             Field = "fft_machine"
	FieldFan                    Field = "fan"
	FieldHearingAidPods         Field = "hearing_aid_pods"
	FieldHumidifier             Field = "humidifier"
	FieldImplantedCardiacDevice Field = "implanted_cardiac_device"
	FieldMechanicalVentilator   Field = "mechanical_ventilator"
	FieldRefrigeratedMedication Field = "refrigerated_medication"
	FieldOxygenConcentrator     Field = "oxygen_concentrator"
	FieldNeurostimulator        Field = "neurostimulator_implant"
	FieldSpinalCordStimulator   Field = "spinal_cord_stimulator"
	FieldRVAD                   Field = "rvad"
	FieldSuctionPumpMachine     Field = "suction_pump_machine"
	FieldSuctionPump            Field = "suction_pump"
	FieldDeafCommunication      Field = "deaf_communication"
	FieldArtificialHeart        Field = "artificial_heart"
	FieldVaporizer              Field = "vaporizer"
	FieldBiVAD                  Field = "bivad"
	FieldIVInfusionPump         Field = "iv_infusion_pump"
)

// ColumnRule is the header predicate for one field.
type ColumnRule struct {
	Field   Field
	Require []string
	Forbid  []string
}

// Matches reports whether a normalized header satisfies the rule.
func (r ColumnRule) Matches(normalized string) bool {
	for _, s := range r.Require {
		if !strings.Contains(normalized, s) {
			return false
		}
	}
	for _, s := range r.Forbid {
		if strings.Contains(normalized, s) {
			return false
		}
	}
	return true
}

// ColumnRules is the full resolution table. Order only affects iteration in
// ColumnMap.Fields; each rule is evaluated independently.
var ColumnRules = []ColumnRule{
	{Field: FieldDateAssigned, Require: []string{"date assigned"}},
	{Field: FieldDOENumber, Require: []string{"number"}, Forbid: []string{"phone", "street"}},
	{Field: FieldName, Require: []string{"name"}, Forbid: []string{"street"}},
	{Field: FieldLatitude, Require: []string{"latitude"}},
	{Field: FieldLongitude, Require: []string{"longitude"}},
	{Field: FieldPhone, Require: []string{"phone number"}, Forbid: []string{"alternate"}},
	{Field: FieldAlternatePhone, Require: []string{"alternate phone number"}},
	{Field: FieldEmail, Require: []string{"homeowner", "email"}},

	{Field: FieldMunicipality, Require: []string{"municipality"}, Forbid: []string{"mailing"}},
	{Field: FieldStreet, Require: []string{"house number and street name"}, Forbid: []string{"mailing"}},
	{Field: FieldCity, Require: []string{"city"}, Forbid: []string{"mailing"}},
	{Field: FieldZipCode, Require: []string{"zip code"}, Forbid: []string{"mailing"}},

	{Field: FieldMailingStreet, Require: []string{"house number and street name", "mailing"}},
	{Field: FieldMailingCity, Require: []string{"city", "mailing"}},
	{Field: FieldMailingMunicipality, Require: []string{"municipality", "mailing"}},
	{Field: FieldMailingZipCode, Require: []string{"zip code", "mailing"}},

	{Field: FieldConstructionYear, Require: []string{"construction year"}},
	{Field: FieldHouseAge, Require: []string{"50 years of age or older"}},
	{Field: FieldRoofType, Require: []string{"flat or inclined/pitched roof"}},
	{Field: FieldRoofMaterial, Require: []string{"cement/concrete or metal/zinc"}},
	{Field: FieldGeographicEligibility, Require: []string{"geographic eligibility"}},

	{Field: FieldDisabilityIndividual, Require: []string{"energy dependent disability individual"}},
	{Field: FieldUnlistedEquipment, Require: []string{"medical equipment is not listed above"}},
	{Field: FieldEnergyEligibility, Require: []string{"energy dependent disability eligibility"}},
	{Field: FieldNoConsentPictures, Require: []string{"did not consent to pictures"}},

	{Field: FieldAirConditioner, Require: []string{"air conditioner (a/c) for temperature control"}},
	{Field: FieldAirPurifier, Require: []string{"air purifier"}},
	{Field: FieldAirMattress, Require: []string{"air mattress for bed sores"}},
	{Field: FieldAsthmaTherapy, Require: []string{"asthma therapy machine or nebulizer"}},
	{Field: FieldAtHomeDialysis, Require: []string{"at home dialysis machine"}},
	{Field: FieldBiPAP, Require: []string{"bilevel positive airway pressure (bipap) machine"}},
	{Field: FieldSleepApnea, Require: []string{"sleep apnea machine"}},
	{Field: FieldDehumidifier, Require: []string{"dehumidifier"}},
	{Field: FieldDialysisMachine, Require: []string{"dialysis machine"}, Forbid: []string{"at home"}},
	{Field: FieldElectricCrane, Require: []string{"electric crane"}},
	{Field: FieldPhysicalTherapy, Require: []string{"electric machine for physical therapy"}},
	{Field: FieldPowerLiftRecliner, Require: []string{"electric power lift recliner"}},
	{Field: FieldVitalSignsMonitor, Require: []string{"electric vital signs monitor"}},
	{Field: FieldElectricBed, Require: []string{"electric bed equipment in the last 13 months"}},
	{Field: FieldElectricScooter, Require: []string{"electric scooter"}},
	{Field: FieldElectricWheelchair, Require: []string{"electric wheelchair"}},
	{Field: FieldEnteralFeedingPump, Require: []string{"enteral feeding tube pump"}},
	{Field: FieldEnteralFeedingMachine, Require: []string{"enteral feeding machine"}, Forbid: []string{"tube pump"}},
	{Field: FieldExternalDefibrillator, Require: []string{"external defibrillator"}},
	{Field: FieldFFTMachine, Require: []string{"fft electric machine"}},
	{Field: FieldFan, Require: []string{"fan for temperature control"}},
	{Field: FieldHearingAidPods, Require: []string{"hearing aid pods rechargeable"}},
	{Field: FieldHumidifier, Require: []string{"humidifier"}, Forbid: []string{"dehumidifier"}},
	{Field: FieldImplantedCardiacDevice, Require: []string{"implanted cardiac devices"}},
	{Field: FieldMechanicalVentilator, Require: []string{"mechanical ventilator"}},
	{Field: FieldRefrigeratedMedication, Require: []string{"medications that require refrigeration"}},
	{Field: FieldOxygenConcentrator, Require: []string{"concentrator equipment in the past 36 months"}},
	{Field: FieldNeurostimulator, Require: []string{"rechargeable electrical neurostimulator implant"}},
	{Field: FieldSpinalCordStimulator, Require: []string{"rechargeable spinal cord"}},
	{Field: FieldRVAD, Require: []string{"right ventricular assistive device"}},
	{Field: FieldSuctionPumpMachine, Require: []string{"suction pump machine"}},
	{Field: FieldSuctionPump, Require: []string{"suction pump"}, Forbid: []string{"machine"}},
	{Field: FieldDeafCommunication, Require: []string{"telephone communication for deaf"}},
	{Field: FieldArtificialHeart, Require: []string{"(tah)"}},
	{Field: FieldVaporizer, Require: []string{"vaporizer"}},
	{Field: FieldBiVAD, Require: []string{"bi-ventricular assistive device"}},
	{Field: FieldIVInfusionPump, Require: []string{"intravenous (iv) infusion pump"}},
}

// ColumnMap maps each semantic field to a column position.
// Fields absent from the map are unresolved.
type ColumnMap struct {
	idx map[Field]int
}

// Index returns the column position of f, or false when unresolved.
func (m ColumnMap) Index(f Field) (int, bool) {
	i, ok := m.idx[f]
	return i, ok
}

// Resolved reports whether f has a column.
func (m ColumnMap) Resolved(f Field) bool {
	_, ok := m.idx[f]
	return ok
}

// Unresolved returns the fields with no matching header, in rule order.
func (m ColumnMap) Unresolved() []Field {
	var out []Field
	for _, r := range ColumnRules {
		if !m.Resolved(r.Field) {
			out = append(out, r.Field)
		}
	}
	return out
}

// Len returns the number of resolved fields.
func (m ColumnMap) Len() int {
	return len(m.idx)
}

// ResolveColumns builds the ColumnMap for a header row. Headers are scanned
// left to right; each field takes the first header its rule accepts.
func ResolveColumns(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	m := ColumnMap{idx: make(map[Field]int, len(ColumnRules))}
	for _, rule := range ColumnRules {
		for i, h := range normalized {
			if rule.Matches(h) {
				m.idx[rule.Field] = i
				break
			}
		}
	}
	return m
}

// NormalizeHeader folds a raw header into the form rules are written against:
// NFKC-normalized, spreadsheet artifacts removed, trimmed, lower-cased.
// Curly apostrophes become straight ones so "Homeowner’s" matches "homeowner's".
func NormalizeHeader(h string) string {
	h = norm.NFKC.String(CleanCell(h))
	h = strings.ReplaceAll(h, "’", "'")
	return strings.ToLower(strings.TrimSpace(h))
}
