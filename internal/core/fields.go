package core

// fields.go is the fixed field-name contract for each store entity. The
// payload builders here are the only place API field names appear.

// FlagField binds a boolean flag to its equipment-profile API field.
type FlagField struct {
	Field Field
	API   string
}

// ProfileFlags lists every flag written to the equipment profile, in the
// order they are sent.
var ProfileFlags = []FlagField{
	{FieldAirConditioner, "Air_Conditioner_A_C_for_temperature_control"},
	{FieldAirMattress, "Air_mattress_for_Bed_Sores_or_Alternating_Air_Pres"},
	{FieldAirPurifier, "Air_Purifier"},
	{FieldAsthmaTherapy, "Asthma_therapy_machine_or_Nebulizer"},
	{FieldAtHomeDialysis, "At_home_dialysis_machine"},
	{FieldBiVAD, "bi_ventricular_assistive_device_BIVAD"},
	{FieldBiPAP, "Bilevel_positive_airway_pressure_BiPAP_machine"},
	{FieldSleepApnea, "CPAP_BPAP_APAP_or_any_other_Sleep_Apnea_Machine"},
	{FieldDehumidifier, "Dehumidifier"},
	{FieldDialysisMachine, "Dialysis_Machine"},
	{FieldElectricBed, "Electric_bed_equipment_in_the_last_13_months"},
	{FieldElectricCrane, "Electric_Crane"},
	{FieldPhysicalTherapy, "Electric_Machine_for_Physical_Therapy"},
	{FieldPowerLiftRecliner, "Electric_Power_Lift_Recliner"},
	{FieldElectricScooter, "Electric_scooter"},
	{FieldVitalSignsMonitor, "Electric_Vital_Signs_Monitor"},
	{FieldElectricWheelchair, "Electric_wheelchair"},
	{FieldEnergyEligibility, "Energy_Dependent_Disability_Eligibility"},
	{FieldNoConsentPictures, "Energy_Dependent_disability_observed_but_homeowner"},
	{FieldEnteralFeedingMachine, "Enteral_feeding_machine"},
	{FieldEnteralFeedingPump, "Enteral_Feeding_Tube_Pump_Machine_Naso_Feeding_M"},
	{FieldExternalDefibrillator, "External_Defibrillator"},
	{FieldFan, "Fan_for_temperature_control"},
	{FieldFFTMachine, "FFT_Electric_Machine"},
	{FieldHearingAidPods, "Hearing_Aid_Pods_Rechargeable"},
	{FieldHumidifier, "Humidifier"},
	{FieldImplantedCardiacDevice, "Implanted_cardiac_devices_that_include_left_ventri"},
	{FieldIVInfusionPump, "intravenous_IV_infusion_pump"},
	{FieldMechanicalVentilator, "Mechanical_Ventilator"},
	{FieldRefrigeratedMedication, "Medications_that_require_refrigeration"},
	{FieldOxygenConcentrator, "Oxegen_concentrator_equipment_in_the_past_36_months"},
	{FieldSpinalCordStimulator, "Rechargeable_Spinal_Cord_Simulator_SCS"},
	{FieldRVAD, "Right_Ventricular_assistive_device_RVAD"},
	{FieldSuctionPump, "Suction_pump"},
	{FieldSuctionPumpMachine, "Suction_Pump_Machine"},
	{FieldDeafCommunication, "Telephone_Communication_for_Deaf_Hard_of_Hearing"},
	{FieldArtificialHeart, "Total_artifical_heart_TAH_in_the_past_5_years"},
	{FieldVaporizer, "Vaporizer"},
	{FieldNeurostimulator, "Rechargeable_Electrical_Neurostimulator_Implant"},
}

// DealSettings are the fixed administrative values stamped on every deal.
type DealSettings struct {
	LayoutID    string // store layout the deal is created under; omitted when empty
	ProgramType string // categorical program tag
	Stage       string // initial pipeline stage
}

// DefaultDealSettings matches the production CRM layout.
var DefaultDealSettings = DealSettings{
	LayoutID:    "4909080000146647839",
	ProgramType: "Generac",
	Stage:       "New",
}

func accountFields(rec BeneficiaryRecord) Fields {
	return Fields{"Account_Name": rec.DisplayName()}
}

func contactFields(rec BeneficiaryRecord, accountID string) Fields {
	return Fields{
		"Email":          rec.Email,
		"First_Name":     rec.FirstName,
		"Last_Name":      rec.LastName,
		"Mailing_Street": rec.MailingStreet,
		"Mailing_City":   rec.MailingCity,
		"Mailing_Zip":    rec.MailingZipCode,
		"County":         rec.MailingMunicipality,
		"Account_Name":   accountID,
	}
}

func contactLinkFields(contactID, accountID string) Fields {
	return Fields{"id": contactID, "Account_Name": accountID}
}

func profileFields(rec BeneficiaryRecord) Fields {
	f := make(Fields, len(ProfileFlags)+1)
	f["Name"] = rec.DisplayName()
	for _, flag := range ProfileFlags {
		f[flag.API] = rec.Flag(flag.Field)
	}
	return f
}

func dealFields(rec BeneficiaryRecord, ids entityIDs, s DealSettings) Fields {
	f := Fields{
		"DOE_ID_Number":  rec.DOENumber,
		"Deal_Name":      rec.DisplayName(),
		"Latitude":       rec.Latitude,
		"Longitude":      rec.Longitude,
		"Customer_Phone": rec.Phone,

		"Customer_State":       rec.Municipality,
		"Customer_Street":      rec.Street,
		"Customer_Postal_Code": rec.ZipCode,
		"Customer_City":        rec.City,

		"Construction_Year": rec.ConstructionYear,

		"Is_the_single_dwelling_house_50_yrs_or_older":              rec.HouseAge,
		"the_house_have_a_flat_or_inclined_pitched_roof":            rec.RoofType,
		"Does_the_house_have_roof_type_material_of_Cement_Concrete": rec.RoofMaterial,
		"Geographic_Eligibility_Last_Mile_CommunityIndex":           rec.GeographicEligibility,

		"Is_anyone_eligible_as_an_Energy_Dependent":     rec.DisabilityIndividual,
		"If_your_medical_equipment_is_not_listed_above": rec.UnlistedEquipment,

		"Assigned":             rec.DateAssigned,
		"Upload_of_Med_Device": "",
		"Contact_Name":         ids.contact,
		"Account_Name":         ids.account,
		"Submodule_Comercial":  ids.profile,

		"Tipo_Comercial": s.ProgramType,
		"Stage":          s.Stage,
	}
	if s.LayoutID != "" {
		f["Layout"] = map[string]any{"id": s.LayoutID}
	}
	return f
}
