package core

// TemplateHeaders is the header row of the downloadable sample file. Every
// header resolves to exactly one field.
var TemplateHeaders = []string{
	"Date Assigned",
	"Number",
	"Name",
	"Latitude:",
	"Longitude:",
	"Phone number:",
	"Alternate phone number:",
	"Homeowner's Email:",
	"Municipality",
	"House Number and Street Name",
	"City",
	"Zip Code",
	"House Number and Street Name (Mailing)",
	"City (Mailing)",
	"Municipality (Mailing)",
	"Zip Code (Mailing)",
	"Construction Year (enter 4 digit year ex. 1950)",
	"Is the single dwelling house 50 years of age or older?",
	"Does the house have a flat or inclined/pitched roof?",
	"Does the house have roof type material of Cement/Concrete or Metal/Zinc ?",
	"Geographic Eligibility (Last Mile Community",
	"Is anyone in the household eligible as an Energy Dependent Disability Individual",
	"If your medical equipment is not listed above",
	"Air Conditioner (A/C) for temperature control",
	"Air Purifier",
	"Air mattress for Bed Sores or Alternating Air Pressure Mattress",
	"Asthma therapy machine or Nebulizer",
	"At home dialysis machine",
	"Bilevel positive airway pressure (BiPAP) machine",
	"CPAP, BPAP, APAP or any other Sleep Apnea Machine",
	"Dehumidifier",
	"Dialysis Machine",
	"Electric Crane",
	"Electric Machine for Physical Therapy",
	"Electric Power Lift Recliner",
	"Electric Vital Signs Monitor",
	"Electric bed equipment in the last 13 months",
	"Electric scooter",
	"Electric wheelchair",
	"Energy Dependent Disability Eligibility",
	"Energy Dependent disability observed but homeowner did not consent to pictures",
	"Enteral Feeding Tube Pump Machine / Naso Feeding Machine",
	"Enteral feeding machine",
	"External Defibrillator",
	"FFT Electric Machine",
	"Fan for temperature control",
	"Hearing Aid Pods Rechargeable",
	"Humidifier",
	"Implanted cardiac devices that include left ventricular assistive device(LVAD)",
	"Mechanical Ventilator",
	"Medications that require refrigeration",
	"Oxegen concentrator equipment in the past 36 months",
	"Rechargeable Electrical Neurostimulator Implant",
	"Rechargeable Spinal Cord Simulator (SCS)",
	"Right Ventricular assistive device (RVAD)",
	"Suction Pump Machine",
	"Suction pump",
	"Telephone Communication for Deaf/Hard of Hearing",
	"Total artifical heart (TAH) in the past 5 years",
	"Vaporizer",
	"bi-ventricular assistive device (BIVAD)",
	"intravenous (IV) infusion pump",
}

// TemplateSample returns the header row plus one example beneficiary.
func TemplateSample() Matrix {
	header := TextRow(TemplateHeaders...)

	row := TextRow(
		"01/15/2024",
		"001",
		"Juan Pérez",
		"18.4655",
		"-66.1057",
		"787-555-0101",
		"787-555-0102",
		"juan.perez@example.com",
		"San Juan",
		"123 Calle Principal",
		"San Juan",
		"00901",
		"123 Calle Principal",
		"San Juan",
		"San Juan",
		"00901",
		"1980",
		"No",
		"Inclined/pitched",
		"No",
		"No",
		"No",
		"N/A",
	)
	for len(row) < len(header) {
		row = append(row, Text("false"))
	}
	// Air conditioner
	row[23] = Text("true")

	return Matrix{header, row}
}
