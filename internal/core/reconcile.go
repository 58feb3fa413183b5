package core

// reconcile.go runs the per-row create-or-reuse sequence against the store.
//
// Each row walks a fixed chain of steps:
//
//	lookup contact -> resolve account -> create equipment profile -> create deal
//
// Account resolution has three branches:
//   - no contact: create account, then create contact linked to it
//   - contact without account: create account, then link the contact
//   - contact with account: reuse both, no writes
//
// The first failing step ends the row. Entities created by earlier steps stay
// in the store; the outcome lists them so a rerun can be reasoned about.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Step names one stage of the reconciliation chain.
type Step string

const (
	StepLookupContact Step = "look up contact"
	StepCreateAccount Step = "create account"
	StepCreateContact Step = "create contact"
	StepLinkContact   Step = "link contact to account"
	StepCreateProfile Step = "create equipment profile"
	StepCreateDeal    Step = "create deal"
)

// StepError reports which step of a row failed and the store's error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrNoIDReturned is returned when the store accepts an insert without
// reporting the new record's id.
var ErrNoIDReturned = errors.New("no id returned after insert")

type entityIDs struct {
	contact string
	account string
	profile string
	deal    string
}

// rowState is threaded through the steps of one row.
type rowState struct {
	rec     BeneficiaryRecord
	match   *ContactMatch
	ids     entityIDs
	created []Entity
}

type step func(ctx context.Context, st *rowState) error

// Reconciler executes the step chain for one record at a time. It holds no
// per-row state and may be reused across rows and batches.
type Reconciler struct {
	store  Store
	deal   DealSettings
	logger *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithDealSettings overrides the administrative values stamped on deals.
func WithDealSettings(s DealSettings) ReconcilerOption {
	return func(r *Reconciler) { r.deal = s }
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler creates a Reconciler writing to store.
func NewReconciler(store Store, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:  store,
		deal:   DefaultDealSettings,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs the chain for one record and reports the outcome. It never
// returns an error; failures are carried in the outcome.
func (r *Reconciler) Reconcile(ctx context.Context, rec BeneficiaryRecord) ReconciliationOutcome {
	st := &rowState{rec: rec}

	var err error
	for _, s := range []step{r.lookupContact, r.resolveAccount, r.createProfile, r.createDeal} {
		if err = s(ctx, st); err != nil {
			break
		}
	}

	out := ReconciliationOutcome{
		RowNumber: rec.RowNumber,
		Email:     rec.Email,
		Success:   err == nil,
		ContactID: st.ids.contact,
		AccountID: st.ids.account,
		ProfileID: st.ids.profile,
		DealID:    st.ids.deal,
		Created:   st.created,
	}
	if err != nil {
		out.Error = err.Error()
		r.logger.Debug("row reconciliation failed",
			"row", rec.RowNumber,
			"email", rec.Email,
			"created", len(st.created),
			"error", err)
	}
	return out
}

func (r *Reconciler) lookupContact(ctx context.Context, st *rowState) error {
	matches, err := r.store.SearchByEmail(ctx, st.rec.Email)
	if err != nil {
		return &StepError{Step: StepLookupContact, Err: err}
	}
	if len(matches) > 0 {
		m := matches[0]
		st.match = &m
	}
	return nil
}

func (r *Reconciler) resolveAccount(ctx context.Context, st *rowState) error {
	switch {
	case st.match == nil:
		accountID, err := r.insert(ctx, st, StepCreateAccount, EntityAccount, accountFields(st.rec))
		if err != nil {
			return err
		}
		st.ids.account = accountID

		contactID, err := r.insert(ctx, st, StepCreateContact, EntityContact, contactFields(st.rec, accountID))
		if err != nil {
			return err
		}
		st.ids.contact = contactID

	case st.match.AccountID == "":
		st.ids.contact = st.match.ID

		accountID, err := r.insert(ctx, st, StepCreateAccount, EntityAccount, accountFields(st.rec))
		if err != nil {
			return err
		}
		st.ids.account = accountID

		if err := r.store.Update(ctx, EntityContact, contactLinkFields(st.match.ID, accountID)); err != nil {
			return &StepError{Step: StepLinkContact, Err: err}
		}

	default:
		st.ids.contact = st.match.ID
		st.ids.account = st.match.AccountID
	}
	return nil
}

func (r *Reconciler) createProfile(ctx context.Context, st *rowState) error {
	id, err := r.insert(ctx, st, StepCreateProfile, EntityEquipmentProfile, profileFields(st.rec))
	if err != nil {
		return err
	}
	st.ids.profile = id
	return nil
}

func (r *Reconciler) createDeal(ctx context.Context, st *rowState) error {
	id, err := r.insert(ctx, st, StepCreateDeal, EntityDeal, dealFields(st.rec, st.ids, r.deal))
	if err != nil {
		return err
	}
	st.ids.deal = id
	return nil
}

// insert writes one entity, recording it on success. A missing id is a failure.
func (r *Reconciler) insert(ctx context.Context, st *rowState, s Step, entity Entity, fields Fields) (string, error) {
	id, err := r.store.Insert(ctx, entity, fields)
	if err != nil {
		return "", &StepError{Step: s, Err: err}
	}
	if id == "" {
		return "", &StepError{Step: s, Err: ErrNoIDReturned}
	}
	st.created = append(st.created, entity)
	r.logger.Debug("entity created", "row", st.rec.RowNumber, "entity", entity, "id", id)
	return id, nil
}
