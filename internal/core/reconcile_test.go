package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func testRecord(email, name string) BeneficiaryRecord {
	first, last := SplitName(name)
	return NewRecord(BeneficiaryRecord{
		RowNumber:           2,
		Email:               email,
		FullName:            name,
		FirstName:           first,
		LastName:            last,
		MailingStreet:       "PO Box 12",
		MailingCity:         "Ponce",
		MailingMunicipality: "Ponce",
		MailingZipCode:      "00731",
		Municipality:        "Ponce",
		DateAssigned:        "2024-01-15",
	}, map[Field]bool{FieldOxygenConcentrator: true})
}

func TestReconcile_NewContact(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store)

	out := r.Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))

	if !out.Success {
		t.Fatalf("Reconcile() failed: %s", out.Error)
	}
	wantCreated := []Entity{EntityAccount, EntityContact, EntityEquipmentProfile, EntityDeal}
	if !reflect.DeepEqual(out.Created, wantCreated) {
		t.Errorf("Created = %v, want %v", out.Created, wantCreated)
	}

	contact := store.inserts[EntityContact][0]
	if contact["Account_Name"] != out.AccountID {
		t.Errorf("contact linked to %v, want %s", contact["Account_Name"], out.AccountID)
	}
	if contact["Mailing_Zip"] != "00731" || contact["County"] != "Ponce" {
		t.Errorf("contact mailing fields = %v", contact)
	}
	if acc := store.inserts[EntityAccount][0]; acc["Account_Name"] != "Ana Ruiz" {
		t.Errorf("account name = %v, want Ana Ruiz", acc["Account_Name"])
	}

	profile := store.inserts[EntityEquipmentProfile][0]
	if profile["Oxegen_concentrator_equipment_in_the_past_36_months"] != true {
		t.Error("oxygen flag not written to profile")
	}
	if profile["Vaporizer"] != false {
		t.Error("unset flag should be written as false")
	}
	if len(profile) != len(ProfileFlags)+1 {
		t.Errorf("profile has %d fields, want %d", len(profile), len(ProfileFlags)+1)
	}

	deal := store.inserts[EntityDeal][0]
	wantDeal := map[string]any{
		"Contact_Name":        out.ContactID,
		"Account_Name":        out.AccountID,
		"Submodule_Comercial": out.ProfileID,
		"Tipo_Comercial":      "Generac",
		"Stage":               "New",
		"Assigned":            "2024-01-15",
		"Customer_State":      "Ponce",
		"Deal_Name":           "Ana Ruiz",
	}
	for k, v := range wantDeal {
		if deal[k] != v {
			t.Errorf("deal[%s] = %v, want %v", k, deal[k], v)
		}
	}
	if layout, ok := deal["Layout"].(map[string]any); !ok || layout["id"] != DefaultDealSettings.LayoutID {
		t.Errorf("deal layout = %v", deal["Layout"])
	}
}

func TestReconcile_ContactWithoutAccount(t *testing.T) {
	store := newFakeStore()
	store.seedContact("ana@example.com", "contact-9", "")
	r := NewReconciler(store)

	out := r.Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))

	if !out.Success {
		t.Fatalf("Reconcile() failed: %s", out.Error)
	}
	if out.ContactID != "contact-9" {
		t.Errorf("ContactID = %q, want contact-9", out.ContactID)
	}
	if store.count(EntityContact) != 0 {
		t.Error("existing contact should not be re-created")
	}
	if len(store.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(store.updates))
	}
	update := store.updates[0]
	if update["id"] != "contact-9" || update["Account_Name"] != out.AccountID {
		t.Errorf("contact update = %v, want id contact-9 linked to %s", update, out.AccountID)
	}
}

func TestReconcile_ContactWithAccount(t *testing.T) {
	store := newFakeStore()
	store.seedContact("ana@example.com", "contact-9", "account-3")
	r := NewReconciler(store)

	out := r.Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))

	if !out.Success {
		t.Fatalf("Reconcile() failed: %s", out.Error)
	}
	if out.ContactID != "contact-9" || out.AccountID != "account-3" {
		t.Errorf("ids = (%s, %s), want (contact-9, account-3)", out.ContactID, out.AccountID)
	}
	if store.count(EntityAccount) != 0 || len(store.updates) != 0 {
		t.Error("reused contact should cause no account writes")
	}
	wantCreated := []Entity{EntityEquipmentProfile, EntityDeal}
	if !reflect.DeepEqual(out.Created, wantCreated) {
		t.Errorf("Created = %v, want %v", out.Created, wantCreated)
	}
}

func TestReconcile_StepFailures(t *testing.T) {
	boom := errors.New("INVALID_DATA")

	tests := []struct {
		name        string
		setup       func(*fakeStore)
		wantStep    Step
		wantCreated []Entity
	}{
		{
			name:     "lookup",
			setup:    func(s *fakeStore) { s.searchErr = boom },
			wantStep: StepLookupContact,
		},
		{
			name: "account",
			setup: func(s *fakeStore) {
				s.insertErr = failOn(EntityAccount, boom)
			},
			wantStep: StepCreateAccount,
		},
		{
			name: "contact",
			setup: func(s *fakeStore) {
				s.insertErr = failOn(EntityContact, boom)
			},
			wantStep:    StepCreateContact,
			wantCreated: []Entity{EntityAccount},
		},
		{
			name: "link",
			setup: func(s *fakeStore) {
				s.seedContact("ana@example.com", "contact-9", "")
				s.updateErr = boom
			},
			wantStep:    StepLinkContact,
			wantCreated: []Entity{EntityAccount},
		},
		{
			name: "profile",
			setup: func(s *fakeStore) {
				s.insertErr = failOn(EntityEquipmentProfile, boom)
			},
			wantStep:    StepCreateProfile,
			wantCreated: []Entity{EntityAccount, EntityContact},
		},
		{
			name: "deal",
			setup: func(s *fakeStore) {
				s.insertErr = failOn(EntityDeal, boom)
			},
			wantStep:    StepCreateDeal,
			wantCreated: []Entity{EntityAccount, EntityContact, EntityEquipmentProfile},
		},
		{
			name:        "profile without id",
			setup:       func(s *fakeStore) { s.noID = EntityEquipmentProfile },
			wantStep:    StepCreateProfile,
			wantCreated: []Entity{EntityAccount, EntityContact},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tt.setup(store)

			out := NewReconciler(store).Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))

			if out.Success {
				t.Fatal("Reconcile() succeeded, want failure")
			}
			wantPrefix := "failed to " + string(tt.wantStep)
			if len(out.Error) < len(wantPrefix) || out.Error[:len(wantPrefix)] != wantPrefix {
				t.Errorf("Error = %q, want prefix %q", out.Error, wantPrefix)
			}
			if !reflect.DeepEqual(out.Created, tt.wantCreated) {
				t.Errorf("Created = %v, want %v", out.Created, tt.wantCreated)
			}
			if store.count(EntityDeal) != 0 && tt.wantStep != StepCreateDeal {
				t.Error("no deal should be written after an earlier failure")
			}
		})
	}
}

func TestReconcile_NoDealAfterProfileFailure(t *testing.T) {
	store := newFakeStore()
	store.insertErr = failOn(EntityEquipmentProfile, errors.New("boom"))

	NewReconciler(store).Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))

	for _, call := range store.calls {
		if call == "insert "+string(EntityDeal) {
			t.Fatal("deal inserted after profile failure")
		}
	}
}

func TestReconcile_CustomDealSettings(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, WithDealSettings(DealSettings{ProgramType: "Solar", Stage: "Intake"}))

	out := r.Reconcile(context.Background(), testRecord("ana@example.com", "Ana Ruiz"))
	if !out.Success {
		t.Fatalf("Reconcile() failed: %s", out.Error)
	}

	deal := store.inserts[EntityDeal][0]
	if deal["Tipo_Comercial"] != "Solar" || deal["Stage"] != "Intake" {
		t.Errorf("deal settings not applied: %v", deal)
	}
	if _, ok := deal["Layout"]; ok {
		t.Error("empty layout id should omit Layout")
	}
}

func TestStepError(t *testing.T) {
	inner := errors.New("DUPLICATE_DATA")
	err := &StepError{Step: StepCreateAccount, Err: inner}

	if err.Error() != "failed to create account: DUPLICATE_DATA" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("StepError should unwrap to the store error")
	}
}

func failOn(entity Entity, err error) func(Entity, Fields) error {
	return func(e Entity, _ Fields) error {
		if e == entity {
			return err
		}
		return nil
	}
}
