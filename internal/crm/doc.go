// Package crm provides core.Store backends.
//
//   - HTTPStore talks to a Zoho CRM v2 style REST API.
//   - PostgresStore keeps entities as JSONB rows, for self-hosted use.
//   - MemoryStore is process-local, for dry runs and tests.
//
// PostgresStore and MemoryStore also implement core.HistoryStore.
package crm
