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
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	model "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/system/database/client"
	"github.com/wso2/regional-consent-service/internal/system/database/lock"
	"github.com/wso2/regional-consent-service/internal/system/database/provider"
	"github.com/wso2/regional-consent-service/internal/system/database/scripts"
	errors2 "github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// ConsentLogStoreInterface persists consent records.
type ConsentLogStoreInterface interface {
	AddConsentLog(ctx context.Context, record *model.ConsentRecord) (int64, error)
	GetCurrentConsent(ctx context.Context, sessionID string) (*model.ConsentRecord, error)
	GetConsentHistory(ctx context.Context, sessionID string) ([]model.ConsentRecord, error)
	GetConsentLogByID(ctx context.Context, id int64) (*model.ConsentRecord, error)
	WithdrawAllConsents(ctx context.Context, sessionID string, withdrawnAt time.Time) (int64, error)
	SupersedeCurrentConsent(ctx context.Context, sessionID string, withdrawnAt time.Time,
		next func(current model.ConsentRecord) model.ConsentRecord) (*model.ConsentRecord, error)
	ListConsentLogs(ctx context.Context, filter model.ConsentLogFilter, limit, offset int) ([]model.ConsentRecord, error)
	CountConsentLogs(ctx context.Context, filter model.ConsentLogFilter) (int, error)
	DeleteConsentLog(ctx context.Context, id int64) (bool, error)
	DeleteConsentLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteConsentLogsBeforeThroughID(ctx context.Context, cutoff time.Time, maxID int64) (int64, error)
}

// ConsentLogStore is the relational implementation of ConsentLogStoreInterface.
type ConsentLogStore struct {
	dbProvider provider.DBProviderInterface
}

// NewConsentLogStore creates a store over the given database provider.
func NewConsentLogStore(dbProvider provider.DBProviderInterface) *ConsentLogStore {
	return &ConsentLogStore{dbProvider: dbProvider}
}

// AddConsentLog appends a record and returns its id. The insert runs under the session lock.
func (s *ConsentLogStore) AddConsentLog(ctx context.Context, record *model.ConsentRecord) (int64, error) {

	logger := log.GetLogger()
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return 0, serverError(errors2.ADD_CONSENT_LOG,
			fmt.Sprintf("Failed to get db client for saving consent of session: %s", record.SessionID), err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx(ctx)
	if err != nil {
		return 0, serverError(errors2.ADD_CONSENT_LOG,
			fmt.Sprintf("Failed to begin transaction for saving consent of session: %s", record.SessionID), err)
	}
	if err := lock.LockSessionTx(ctx, tx, dbClient.Dialect(), record.SessionID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	id, err := insertRecord(ctx, tx, dbClient.Dialect(), record)
	if err != nil {
		rollback(tx, record.SessionID)
		return 0, serverError(errors2.ADD_CONSENT_LOG,
			fmt.Sprintf("Failed to insert consent of session: %s", record.SessionID), err)
	}
	if err := tx.Commit(); err != nil {
		return 0, serverError(errors2.ADD_CONSENT_LOG,
			fmt.Sprintf("Failed to commit consent of session: %s", record.SessionID), err)
	}
	logger.Debug(fmt.Sprintf("Saved consent record %d for session: %s", id, record.SessionID))
	return id, nil
}

// GetCurrentConsent returns the latest active record of the session, or nil when none exists.
func (s *ConsentLogStore) GetCurrentConsent(ctx context.Context, sessionID string) (*model.ConsentRecord, error) {

	records, err := s.query(ctx, scripts.SelectCurrentConsent, errors2.FETCH_CONSENT_LOGS,
		fmt.Sprintf("current consent of session: %s", sessionID), sessionID)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// GetConsentHistory returns every record of the session, oldest first, including withdrawn ones.
func (s *ConsentLogStore) GetConsentHistory(ctx context.Context, sessionID string) ([]model.ConsentRecord, error) {

	return s.query(ctx, scripts.SelectConsentHistory, errors2.FETCH_CONSENT_LOGS,
		fmt.Sprintf("consent history of session: %s", sessionID), sessionID)
}

// GetConsentLogByID returns the record with the given id, or nil.
func (s *ConsentLogStore) GetConsentLogByID(ctx context.Context, id int64) (*model.ConsentRecord, error) {

	records, err := s.query(ctx, scripts.SelectConsentByID, errors2.FETCH_CONSENT_LOGS,
		fmt.Sprintf("consent record: %d", id), id)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// WithdrawAllConsents marks every active record of the session withdrawn and returns how many were.
func (s *ConsentLogStore) WithdrawAllConsents(ctx context.Context, sessionID string, withdrawnAt time.Time) (int64, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return 0, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to get db client for withdrawing consent of session: %s", sessionID), err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx(ctx)
	if err != nil {
		return 0, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to begin transaction for withdrawing consent of session: %s", sessionID), err)
	}
	if err := lock.LockSessionTx(ctx, tx, dbClient.Dialect(), sessionID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	result, err := tx.ExecContext(ctx, scripts.WithdrawActiveConsents[dbClient.Dialect()], toMillis(withdrawnAt), sessionID)
	if err != nil {
		rollback(tx, sessionID)
		return 0, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to withdraw consent of session: %s", sessionID), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		rollback(tx, sessionID)
		return 0, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to read withdrawn row count of session: %s", sessionID), err)
	}
	if err := tx.Commit(); err != nil {
		return 0, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to commit withdrawal of session: %s", sessionID), err)
	}
	return affected, nil
}

// SupersedeCurrentConsent replaces the active record of the session in one transaction: the current
// record is marked withdrawn and the record built by next is inserted. Returns nil when the session
// has no active record.
func (s *ConsentLogStore) SupersedeCurrentConsent(ctx context.Context, sessionID string, withdrawnAt time.Time,
	next func(current model.ConsentRecord) model.ConsentRecord) (*model.ConsentRecord, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to get db client for withdrawing consent of session: %s", sessionID), err)
	}
	defer dbClient.Close()
	dialect := dbClient.Dialect()

	tx, err := dbClient.BeginTx(ctx)
	if err != nil {
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to begin transaction for withdrawing consent of session: %s", sessionID), err)
	}
	if err := lock.LockSessionTx(ctx, tx, dialect, sessionID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	rows, err := client.QueryTx(ctx, tx, scripts.SelectCurrentConsent[dialect], sessionID)
	if err != nil {
		rollback(tx, sessionID)
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to read current consent of session: %s", sessionID), err)
	}
	if len(rows) == 0 {
		rollback(tx, sessionID)
		return nil, nil
	}
	current, err := rowToRecord(rows[0])
	if err != nil {
		rollback(tx, sessionID)
		return nil, serverError(errors2.UNMARSHAL_JSON,
			fmt.Sprintf("Failed to decode current consent of session: %s", sessionID), err)
	}

	if _, err := tx.ExecContext(ctx, scripts.WithdrawConsentByID[dialect], toMillis(withdrawnAt), current.ID); err != nil {
		rollback(tx, sessionID)
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to withdraw consent record %d of session: %s", current.ID, sessionID), err)
	}

	replacement := next(current)
	replacement.SessionID = sessionID
	id, err := insertRecord(ctx, tx, dialect, &replacement)
	if err != nil {
		rollback(tx, sessionID)
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to insert superseding consent of session: %s", sessionID), err)
	}
	if err := tx.Commit(); err != nil {
		return nil, serverError(errors2.WITHDRAW_CONSENT,
			fmt.Sprintf("Failed to commit superseding consent of session: %s", sessionID), err)
	}
	replacement.ID = id
	log.GetLogger().Debug(fmt.Sprintf("Consent record %d superseded by %d for session: %s", current.ID, id, sessionID))
	return &replacement, nil
}

// ListConsentLogs returns one page of records matching the filter.
func (s *ConsentLogStore) ListConsentLogs(ctx context.Context, filter model.ConsentLogFilter, limit, offset int) ([]model.ConsentRecord, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return nil, serverError(errors2.FETCH_CONSENT_LOGS, "Failed to get db client for listing consent logs.", err)
	}
	defer dbClient.Close()

	where, args := buildWhereClause(filter)
	query := scripts.SelectConsentLogs[dbClient.Dialect()] + where + buildOrderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := dbClient.ExecuteQuery(ctx, query, args...)
	if err != nil {
		return nil, serverError(errors2.FETCH_CONSENT_LOGS, "Failed to execute query for listing consent logs.", err)
	}
	return mapRows(rows)
}

// CountConsentLogs counts records matching the filter, ignoring pagination.
func (s *ConsentLogStore) CountConsentLogs(ctx context.Context, filter model.ConsentLogFilter) (int, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return 0, serverError(errors2.FETCH_CONSENT_LOGS, "Failed to get db client for counting consent logs.", err)
	}
	defer dbClient.Close()

	where, args := buildWhereClause(filter)
	rows, err := dbClient.ExecuteQuery(ctx, scripts.CountConsentLogs[dbClient.Dialect()]+where, args...)
	if err != nil {
		return 0, serverError(errors2.FETCH_CONSENT_LOGS, "Failed to execute query for counting consent logs.", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	total, err := toInt64(rows[0]["total"])
	if err != nil {
		return 0, serverError(errors2.FETCH_CONSENT_LOGS, "Unexpected consent log count.", err)
	}
	return int(total), nil
}

// DeleteConsentLog hard-deletes one record. Returns false when no record has the id.
func (s *ConsentLogStore) DeleteConsentLog(ctx context.Context, id int64) (bool, error) {

	affected, err := s.exec(ctx, scripts.DeleteConsentByID, errors2.DELETE_CONSENT_LOG,
		fmt.Sprintf("consent record: %d", id), id)
	return affected > 0, err
}

// DeleteConsentLogsBefore hard-deletes every record with a timestamp before cutoff.
func (s *ConsentLogStore) DeleteConsentLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {

	return s.exec(ctx, scripts.DeleteConsentsBefore, errors2.DELETE_CONSENT_LOG,
		fmt.Sprintf("consent records before %s", cutoff.Format(time.RFC3339)), toMillis(cutoff))
}

// DeleteConsentLogsBeforeThroughID hard-deletes records with a timestamp before cutoff and an id not
// above maxID.
func (s *ConsentLogStore) DeleteConsentLogsBeforeThroughID(ctx context.Context, cutoff time.Time, maxID int64) (int64, error) {

	return s.exec(ctx, scripts.DeleteConsentsBeforeThroughID, errors2.DELETE_CONSENT_LOG,
		fmt.Sprintf("consent records before %s through id %d", cutoff.Format(time.RFC3339), maxID),
		toMillis(cutoff), maxID)
}

func (s *ConsentLogStore) query(ctx context.Context, queries map[string]string, errMsg errors2.ErrorMessage,
	subject string, args ...interface{}) ([]model.ConsentRecord, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return nil, serverError(errMsg, "Failed to get db client for fetching "+subject, err)
	}
	defer dbClient.Close()

	rows, err := dbClient.ExecuteQuery(ctx, queries[dbClient.Dialect()], args...)
	if err != nil {
		return nil, serverError(errMsg, "Failed to execute query for fetching "+subject, err)
	}
	return mapRows(rows)
}

func (s *ConsentLogStore) exec(ctx context.Context, queries map[string]string, errMsg errors2.ErrorMessage,
	subject string, args ...interface{}) (int64, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return 0, serverError(errMsg, "Failed to get db client for deleting "+subject, err)
	}
	defer dbClient.Close()

	affected, err := dbClient.Execute(ctx, queries[dbClient.Dialect()], args...)
	if err != nil {
		return 0, serverError(errMsg, "Failed to execute query for deleting "+subject, err)
	}
	log.GetLogger().Debug(fmt.Sprintf("Deleted %d row(s) of %s", affected, subject))
	return affected, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, dialect string, record *model.ConsentRecord) (int64, error) {

	categories, err := json.Marshal(record.Categories)
	if err != nil {
		return 0, err
	}
	purposes, err := marshalNullable(record.Purposes)
	if err != nil {
		return 0, err
	}
	metadata, err := marshalNullable(record.Metadata)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx, scripts.InsertConsentLog[dialect],
		nullableUserID(record.UserID), record.SessionID, record.Region, string(categories), purposes,
		record.BannerVersion, string(record.Source), record.IPHash, record.UserAgentHash,
		toMillis(record.Timestamp), nullableMillis(record.ExpiryDate), nullableMillis(record.WithdrawnAt), metadata,
	).Scan(&id)
	return id, err
}

func mapRows(rows []map[string]interface{}) ([]model.ConsentRecord, error) {

	records := make([]model.ConsentRecord, 0, len(rows))
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, serverError(errors2.UNMARSHAL_JSON, "Failed to decode consent record.", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func rollback(tx *sql.Tx, sessionID string) {
	if err := tx.Rollback(); err != nil {
		log.GetLogger().Debug(fmt.Sprintf("Failed to rollback transaction of session: %s", sessionID), log.Error(err))
	}
}

func serverError(msg errors2.ErrorMessage, description string, err error) error {
	log.GetLogger().Debug(description, log.Error(err))
	return errors2.NewServerError(errors2.ErrorMessage{
		Code:        msg.Code,
		Message:     msg.Message,
		Description: description,
	}, err)
}
