// Package core provides the business logic for importing beneficiary
// spreadsheets and reconciling them with a CRM.
//
// The package holds all domain logic independent of any file format, store
// or transport. Web handlers, the CLI and tests all drive it through the
// same types.
//
// # Pipeline
//
// A decoded spreadsheet ([Matrix]) flows through fixed stages:
//
//  1. [ResolveColumns] maps free-form headers to canonical [Field]s
//  2. [Normalize] trims and pads every row to the header width
//  3. [Validate] checks each row's homeowner email
//  4. [Extract] builds a [BeneficiaryRecord] per row
//  5. [Reconciler] finds or creates the contact and account, then creates
//     the equipment profile and deal
//  6. [Runner] drives the rows one at a time and reports [Progress]
//
// # Store
//
// The CRM is reached through the [Store] interface: search contacts by
// email, insert a record, update a record. Implementations live in the crm
// package. A failed step ends its row; entities created by earlier steps are
// kept and listed in the row's [ReconciliationOutcome].
//
// # Import Sessions
//
// [Service] wraps the pipeline in sessions: [Service.Stage] validates an
// upload, [Service.StripInvalid] drops rows that failed, [Service.Start]
// runs the batch in the background, and [Service.Subscribe] and
// [Service.Report] follow it. Sessions live in memory and expire after
// [ServiceConfig.SessionTTL]. An [ImportLimiter] bounds how many batches run
// at once; rows within a batch are never run in parallel.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL005: Validation errors (email column, emails, dates)
//   - FILE001-FILE007: File errors (size, encoding, format)
//   - CRM001-CRM008: Reconciliation step and CRM transport errors
//   - IMP001-IMP005: Session errors (busy, expired, cancelled, timeout)
package core
