/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	model "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/system/database/client"
	"github.com/wso2/regional-consent-service/internal/system/database/provider"
	errors2 "github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func newSQLiteStore(t *testing.T) *ConsentLogStore {
	t.Helper()
	db, err := provider.OpenSQLite(filepath.Join(t.TempDir(), "consent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, client.NewDBClient(db, "sqlite").InitDatabase(context.Background()))
	return NewConsentLogStore(provider.NewStaticDBProvider(db, "sqlite"))
}

func newRecord(sessionID, region string, at time.Time, categories model.Categories) *model.ConsentRecord {
	return &model.ConsentRecord{
		SessionID:     sessionID,
		Region:        region,
		Categories:    categories,
		BannerVersion: "v1",
		Source:        model.SourceBanner,
		Timestamp:     at,
	}
}

func TestAddAndGetCurrentConsent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	expiry := now.Add(365 * 24 * time.Hour)

	record := newRecord("s1", "EU", now, model.Categories{"necessary": true, "analytics": true})
	record.UserID = 42
	record.Purposes = map[string]interface{}{"1": true}
	record.Metadata = map[string]interface{}{"page": "/checkout"}
	record.ExpiryDate = &expiry
	id, err := s.AddConsentLog(ctx, record)
	require.NoError(t, err)
	assert.Positive(t, id)

	current, err := s.GetCurrentConsent(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, id, current.ID)
	assert.Equal(t, int64(42), current.UserID)
	assert.Equal(t, "EU", current.Region)
	assert.True(t, current.Categories["analytics"])
	assert.Equal(t, true, current.Purposes["1"])
	assert.Equal(t, "/checkout", current.Metadata["page"])
	assert.True(t, now.Equal(current.Timestamp))
	require.NotNil(t, current.ExpiryDate)
	assert.True(t, expiry.Equal(*current.ExpiryDate))
	assert.Nil(t, current.WithdrawnAt)

	missing, err := s.GetCurrentConsent(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetCurrentConsent_LatestWins(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	_, err := s.AddConsentLog(ctx, newRecord("s1", "EU", now.Add(-time.Minute), model.Categories{"analytics": true}))
	require.NoError(t, err)
	latest, err := s.AddConsentLog(ctx, newRecord("s1", "EU", now, model.Categories{"analytics": false}))
	require.NoError(t, err)

	current, err := s.GetCurrentConsent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, latest, current.ID)
}

func TestWithdrawAllConsents(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		_, err := s.AddConsentLog(ctx, newRecord("s1", "EU", now, model.Categories{"analytics": true}))
		require.NoError(t, err)
	}
	_, err := s.AddConsentLog(ctx, newRecord("s2", "EU", now, model.Categories{"analytics": true}))
	require.NoError(t, err)

	affected, err := s.WithdrawAllConsents(ctx, "s1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	current, err := s.GetCurrentConsent(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, current)

	other, err := s.GetCurrentConsent(ctx, "s2")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestSupersedeCurrentConsent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	original, err := s.AddConsentLog(ctx, newRecord("s1", "EU", now.Add(-time.Hour),
		model.Categories{"necessary": true, "analytics": true, "marketing": true}))
	require.NoError(t, err)

	replacement, err := s.SupersedeCurrentConsent(ctx, "s1", now, func(current model.ConsentRecord) model.ConsentRecord {
		assert.Equal(t, original, current.ID)
		next := current
		next.Categories = current.Categories.Without([]model.Category{"marketing"})
		next.Source = model.SourceWithdraw
		next.Timestamp = now
		return next
	})
	require.NoError(t, err)
	require.NotNil(t, replacement)
	assert.NotEqual(t, original, replacement.ID)

	history, err := s.GetConsentHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, original, history[0].ID)
	assert.NotNil(t, history[0].WithdrawnAt)
	assert.Nil(t, history[1].WithdrawnAt)
	assert.Equal(t, model.SourceWithdraw, history[1].Source)
	_, hasMarketing := history[1].Categories["marketing"]
	assert.False(t, hasMarketing)

	none, err := s.SupersedeCurrentConsent(ctx, "nobody", now, func(current model.ConsentRecord) model.ConsentRecord {
		t.Fatal("next must not be called without an active record")
		return current
	})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListConsentLogs_PaginationAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 25; i++ {
		_, err := s.AddConsentLog(ctx, newRecord(fmt.Sprintf("eu-%d", i), "EU", base.Add(time.Duration(i)*time.Second),
			model.Categories{"analytics": i%2 == 0}))
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := s.AddConsentLog(ctx, newRecord(fmt.Sprintf("br-%d", i), "BR", base, model.Categories{"analytics": true}))
		require.NoError(t, err)
	}

	filter := model.ConsentLogFilter{Region: "eu"}
	seen := map[int64]bool{}
	for page, want := range []int{10, 10, 5} {
		records, err := s.ListConsentLogs(ctx, filter, 10, page*10)
		require.NoError(t, err)
		assert.Len(t, records, want)
		for _, record := range records {
			assert.Equal(t, "EU", record.Region)
			assert.False(t, seen[record.ID], "record %d returned twice", record.ID)
			seen[record.ID] = true
		}
	}

	total, err := s.CountConsentLogs(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	start := base.Add(20 * time.Second)
	total, err = s.CountConsentLogs(ctx, model.ConsentLogFilter{Region: "EU", StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	all, err := s.CountConsentLogs(ctx, model.ConsentLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 28, all)
}

func TestListConsentLogs_OrderAndWithdrawn(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	_, err := s.AddConsentLog(ctx, newRecord("a", "UK", now.Add(-2*time.Minute), model.Categories{"analytics": true}))
	require.NoError(t, err)
	_, err = s.AddConsentLog(ctx, newRecord("b", "BR", now.Add(-time.Minute), model.Categories{"analytics": true}))
	require.NoError(t, err)
	_, err = s.WithdrawAllConsents(ctx, "a", now)
	require.NoError(t, err)

	active, err := s.ListConsentLogs(ctx, model.ConsentLogFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].SessionID)

	everything, err := s.ListConsentLogs(ctx, model.ConsentLogFilter{IncludeWithdrawn: true, OrderBy: "region", Order: "asc"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, everything, 2)
	assert.Equal(t, "BR", everything[0].Region)

	fallback, err := s.ListConsentLogs(ctx, model.ConsentLogFilter{IncludeWithdrawn: true, OrderBy: "ip_hash; DROP TABLE consent_logs", Order: "sideways"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, fallback, 2)
	assert.Equal(t, "b", fallback[0].SessionID)
}

func TestDeleteConsentLogs(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	oldID, err := s.AddConsentLog(ctx, newRecord("old", "EU", now.Add(-40*24*time.Hour), model.Categories{"analytics": true}))
	require.NoError(t, err)
	_, err = s.AddConsentLog(ctx, newRecord("fresh", "EU", now, model.Categories{"analytics": true}))
	require.NoError(t, err)

	deleted, err := s.DeleteConsentLogsBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := s.GetConsentLogByID(ctx, oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	fresh, err := s.GetCurrentConsent(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, fresh)

	ok, err := s.DeleteConsentLog(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteConsentLog(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteConsentLogsBeforeThroughID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	firstID, err := s.AddConsentLog(ctx, newRecord("a", "EU", old, model.Categories{"analytics": true}))
	require.NoError(t, err)
	secondID, err := s.AddConsentLog(ctx, newRecord("b", "EU", old, model.Categories{"analytics": true}))
	require.NoError(t, err)

	deleted, err := s.DeleteConsentLogsBeforeThroughID(ctx, now.Add(-30*24*time.Hour), firstID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := s.GetConsentLogByID(ctx, firstID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := s.GetConsentLogByID(ctx, secondID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

type failingProvider struct{}

func (failingProvider) GetDBClient() (client.DBClientInterface, error) {
	return nil, errors.New("connection refused")
}

func TestStore_DBClientUnavailable(t *testing.T) {
	s := NewConsentLogStore(failingProvider{})
	ctx := context.Background()

	_, err := s.AddConsentLog(ctx, newRecord("s1", "EU", time.Now(), model.Categories{"analytics": true}))
	assertServerError(t, err, errors2.ADD_CONSENT_LOG.Code)

	_, err = s.GetCurrentConsent(ctx, "s1")
	assertServerError(t, err, errors2.FETCH_CONSENT_LOGS.Code)

	_, err = s.WithdrawAllConsents(ctx, "s1", time.Now())
	assertServerError(t, err, errors2.WITHDRAW_CONSENT.Code)

	_, err = s.DeleteConsentLogsBefore(ctx, time.Now())
	assertServerError(t, err, errors2.DELETE_CONSENT_LOG.Code)
}

func TestAddConsentLog_PostgresInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT pg_advisory_xact_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_xact_lock"}).AddRow(""))
	mock.ExpectQuery("INSERT INTO consent_logs").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s := NewConsentLogStore(provider.NewStaticDBProvider(db, "postgres"))
	_, err = s.AddConsentLog(context.Background(), newRecord("s1", "EU", time.Now(), model.Categories{"analytics": true}))
	assertServerError(t, err, errors2.ADD_CONSENT_LOG.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddConsentLog_LockFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT pg_advisory_xact_lock").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	s := NewConsentLogStore(provider.NewStaticDBProvider(db, "postgres"))
	_, err = s.AddConsentLog(context.Background(), newRecord("s1", "EU", time.Now(), model.Categories{"analytics": true}))
	assertServerError(t, err, errors2.LOCK_ACQUIRE.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListConsentLogs_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("(?s)SELECT .* FROM consent_logs WHERE region = \\$1 AND withdrawn_at IS NULL ORDER BY consent_timestamp DESC, id DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs("EU", 10, 0).
		WillReturnError(errors.New("connection reset"))

	s := NewConsentLogStore(provider.NewStaticDBProvider(db, "postgres"))
	_, err = s.ListConsentLogs(context.Background(), model.ConsentLogFilter{Region: "EU"}, 10, 0)
	assertServerError(t, err, errors2.FETCH_CONSENT_LOGS.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func assertServerError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	serverErr, ok := err.(*errors2.ServerError)
	require.True(t, ok, "expected *ServerError, got %T", err)
	assert.Equal(t, code, serverErr.Code)
}
