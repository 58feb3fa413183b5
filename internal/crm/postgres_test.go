package crm

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgresStore connects to TEST_DATABASE_URL or skips.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewPostgresStore(ctx, PostgresConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestPostgresStore_ContactLifecycle(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	matches, err := s.SearchByEmail(ctx, email)
	require.NoError(t, err)
	assert.Empty(t, matches)

	accountID, err := s.Insert(ctx, core.EntityAccount, core.Fields{"Account_Name": "Ana Ruiz"})
	require.NoError(t, err)

	contactID, err := s.Insert(ctx, core.EntityContact, core.Fields{"Email": email})
	require.NoError(t, err)

	matches, err = s.SearchByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, []core.ContactMatch{{ID: contactID}}, matches)

	require.NoError(t, s.Update(ctx, core.EntityContact, core.Fields{"id": contactID, "Account_Name": accountID}))

	matches, err = s.SearchByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, accountID, matches[0].AccountID)

	err = s.Update(ctx, core.EntityContact, core.Fields{"id": uuid.NewString()})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPostgresStore_History(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	rec := core.ImportRecord{
		ID:         uuid.NewString(),
		FileName:   "beneficiaries.xlsx",
		StartedAt:  time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond),
		FinishedAt: time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond),
		Total:      3,
		Succeeded:  2,
		Failed:     1,
	}
	require.NoError(t, s.RecordImport(ctx, rec))

	recent, err := s.RecentImports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, rec.ID, recent[0].ID)
	assert.Equal(t, 2, recent[0].Succeeded)
}
