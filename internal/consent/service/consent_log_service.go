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

package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	model "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/consent/store"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	errors2 "github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
	"github.com/wso2/regional-consent-service/internal/system/metrics"
	"github.com/wso2/regional-consent-service/internal/system/pagination"
)

// ConsentLogServiceInterface defines the consent log operations.
type ConsentLogServiceInterface interface {
	Save(ctx context.Context, prefs model.ConsentPreferences) (int64, error)
	CurrentStatus(ctx context.Context, sessionID string, userID int64) (*model.ConsentRecord, error)
	Withdraw(ctx context.Context, sessionID string, categories []model.Category) error
	List(ctx context.Context, filter model.ConsentLogFilter) ([]model.ConsentRecord, error)
	Count(ctx context.Context, filter model.ConsentLogFilter) (int, error)
	Export(ctx context.Context, format string, filter model.ConsentLogFilter) ([]byte, error)
	RegionStatistics(ctx context.Context, filter model.ConsentLogFilter) (*model.Statistics, error)
	PruneExpired(ctx context.Context, retentionDays int) (int64, error)
	Prune(ctx context.Context, retentionDays int, beforeDelete func(context.Context, []model.ConsentRecord) error) (int64, error)
	Delete(ctx context.Context, id int64) error
	History(ctx context.Context, sessionID string) ([]model.ConsentRecord, error)
}

// ModeLookup returns the compliance mode of a region code.
type ModeLookup func(region string) string

// ConsentLogService is the default implementation of ConsentLogServiceInterface.
type ConsentLogService struct {
	store          store.ConsentLogStoreInterface
	modeOf         ModeLookup
	clock          func() time.Time
	pruneBatchSize int
}

// Option configures a ConsentLogService.
type Option func(*ConsentLogService)

// WithModeLookup sets how statistics attribute regions to compliance modes.
func WithModeLookup(modeOf ModeLookup) Option {
	return func(s *ConsentLogService) {
		s.modeOf = modeOf
	}
}

// WithClock replaces the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *ConsentLogService) {
		s.clock = clock
	}
}

// WithPruneBatchSize sets how many records Prune hands to its archive callback at a time.
func WithPruneBatchSize(size int) Option {
	return func(s *ConsentLogService) {
		if size > 0 {
			s.pruneBatchSize = size
		}
	}
}

// NewConsentLogService creates a service over the given store.
func NewConsentLogService(consentStore store.ConsentLogStoreInterface, opts ...Option) *ConsentLogService {

	s := &ConsentLogService{
		store:          consentStore,
		modeOf:         func(string) string { return "default" },
		clock:          time.Now,
		pruneBatchSize: constants.PruneBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates and appends a consent record. Earlier active records of the session stay active;
// the newest one is the current status.
func (cs *ConsentLogService) Save(ctx context.Context, prefs model.ConsentPreferences) (int64, error) {

	record, err := cs.validatePreferences(prefs)
	if err != nil {
		return 0, err
	}

	id, err := cs.store.AddConsentLog(ctx, record)
	metrics.ConsentOperations.WithLabelValues("save", metrics.Outcome(err)).Inc()
	if err != nil {
		return 0, err
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeVisitor,
		TargetID:      record.SessionID,
		TargetType:    log.TargetTypeConsentSession,
		ActionID:      log.ActionSaveConsent,
		Region:        record.Region,
		Data:          map[string]interface{}{"id": id, "source": record.Source},
	})
	return id, nil
}

// CurrentStatus returns the latest active record of the session, or nil. userID is accepted for
// future prioritization; matching is by session only.
func (cs *ConsentLogService) CurrentStatus(ctx context.Context, sessionID string, userID int64) (*model.ConsentRecord, error) {

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError("session_id is required.")
	}
	return cs.store.GetCurrentConsent(ctx, sessionID)
}

// Withdraw withdraws consent of a session. With no categories every active record is withdrawn.
// Otherwise the current record is superseded by a copy without the named categories.
func (cs *ConsentLogService) Withdraw(ctx context.Context, sessionID string, categories []model.Category) error {

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return validationError("session_id is required.")
	}
	logger := log.GetLogger()
	now := cs.clock().UTC()

	if len(categories) == 0 {
		affected, err := cs.store.WithdrawAllConsents(ctx, sessionID, now)
		metrics.ConsentOperations.WithLabelValues("withdraw", metrics.Outcome(err)).Inc()
		if err != nil {
			return err
		}
		logger.Audit(log.AuditEvent{
			InitiatorType: log.InitiatorTypeVisitor,
			TargetID:      sessionID,
			TargetType:    log.TargetTypeConsentSession,
			ActionID:      log.ActionWithdrawConsent,
			Data:          map[string]interface{}{"withdrawn_records": affected},
		})
		return nil
	}

	replacement, err := cs.store.SupersedeCurrentConsent(ctx, sessionID, now, func(current model.ConsentRecord) model.ConsentRecord {
		next := current
		next.ID = 0
		next.Categories = current.Categories.Without(categories)
		next.Source = model.SourceWithdraw
		next.Timestamp = now
		next.WithdrawnAt = nil
		return next
	})
	metrics.ConsentOperations.WithLabelValues("partial_withdraw", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	if replacement == nil {
		return errors2.NewClientError(errors2.CONSENT_NOT_FOUND, http.StatusNotFound)
	}
	logger.Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeVisitor,
		TargetID:      sessionID,
		TargetType:    log.TargetTypeConsentSession,
		ActionID:      log.ActionPartialWithdraw,
		Region:        replacement.Region,
		Data:          map[string]interface{}{"id": replacement.ID, "withdrawn_categories": categories},
	})
	return nil
}

// List returns one page of records. per_page is capped and sort keys fall back to the defaults.
func (cs *ConsentLogService) List(ctx context.Context, filter model.ConsentLogFilter) ([]model.ConsentRecord, error) {

	if err := validateDateRange(filter); err != nil {
		return nil, err
	}
	page := pagination.Normalize(filter.Page, filter.PerPage)
	return cs.store.ListConsentLogs(ctx, filter, page.PerPage, page.Offset())
}

// Count counts records matching the filter, ignoring pagination.
func (cs *ConsentLogService) Count(ctx context.Context, filter model.ConsentLogFilter) (int, error) {

	if err := validateDateRange(filter); err != nil {
		return 0, err
	}
	return cs.store.CountConsentLogs(ctx, filter)
}

// Export renders every record matching the filter as CSV or JSON.
func (cs *ConsentLogService) Export(ctx context.Context, format string, filter model.ConsentLogFilter) ([]byte, error) {

	format = strings.ToLower(strings.TrimSpace(format))
	if format != constants.ExportFormatCSV && format != constants.ExportFormatJSON {
		return nil, errors2.NewClientError(errors2.INVALID_EXPORT_FORMAT, http.StatusBadRequest)
	}
	records, err := cs.all(ctx, filter)
	if err != nil {
		return nil, err
	}

	var out []byte
	if format == constants.ExportFormatCSV {
		out, err = encodeCSV(records)
	} else {
		out, err = encodeJSON(records)
	}
	if err != nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.EXPORT_CONSENT_LOGS.Code,
			Message:     errors2.EXPORT_CONSENT_LOGS.Message,
			Description: fmt.Sprintf("Failed to encode %d consent records as %s.", len(records), format),
		}, err)
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeAdmin,
		TargetType:    log.TargetTypeConsentLog,
		ActionID:      log.ActionExportConsent,
		Region:        filter.Region,
		Data:          map[string]interface{}{"format": format, "records": len(records)},
	})
	return out, nil
}

// RegionStatistics aggregates the filtered record set. A record counts as accepted when any category
// other than necessary is granted; a stored necessary grant is ignored.
func (cs *ConsentLogService) RegionStatistics(ctx context.Context, filter model.ConsentLogFilter) (*model.Statistics, error) {

	records, err := cs.all(ctx, filter)
	if err != nil {
		return nil, err
	}
	return cs.aggregate(records), nil
}

// PruneExpired hard-deletes records older than retentionDays.
func (cs *ConsentLogService) PruneExpired(ctx context.Context, retentionDays int) (int64, error) {
	return cs.Prune(ctx, retentionDays, nil)
}

// Prune hard-deletes records older than retentionDays. When beforeDelete is set, expired records are
// handed to it in id order, one batch at a time, and each batch is deleted only after the callback
// accepted it. A callback failure stops the prune; batches already archived stay deleted.
func (cs *ConsentLogService) Prune(ctx context.Context, retentionDays int,
	beforeDelete func(context.Context, []model.ConsentRecord) error) (int64, error) {

	if retentionDays <= 0 {
		return 0, errors2.NewClientError(errors2.INVALID_RETENTION, http.StatusBadRequest)
	}
	cutoff := cs.clock().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	var deleted int64
	var err error
	if beforeDelete == nil {
		deleted, err = cs.store.DeleteConsentLogsBefore(ctx, cutoff)
	} else {
		deleted, err = cs.pruneInBatches(ctx, cutoff, beforeDelete)
	}
	metrics.ConsentOperations.WithLabelValues("prune", metrics.Outcome(err)).Inc()
	if err != nil {
		return deleted, err
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeSystem,
		TargetType:    log.TargetTypeConsentLog,
		ActionID:      log.ActionPruneConsent,
		Data: map[string]interface{}{
			"retention_days": retentionDays,
			"cutoff":         cutoff.Format(time.RFC3339),
			"deleted":        deleted,
		},
	})
	return deleted, nil
}

func (cs *ConsentLogService) pruneInBatches(ctx context.Context, cutoff time.Time,
	beforeDelete func(context.Context, []model.ConsentRecord) error) (int64, error) {

	end := cutoff.Add(-time.Millisecond)
	filter := model.ConsentLogFilter{
		EndDate:          &end,
		IncludeWithdrawn: true,
		OrderBy:          "id",
		Order:            "ASC",
	}
	var deleted int64
	for {
		batch, err := cs.store.ListConsentLogs(ctx, filter, cs.pruneBatchSize, 0)
		if err != nil {
			return deleted, err
		}
		if len(batch) == 0 {
			return deleted, nil
		}
		if err := beforeDelete(ctx, batch); err != nil {
			return deleted, err
		}
		// The batch is the lowest expired ids, so bounding by its last id deletes exactly the batch.
		n, err := cs.store.DeleteConsentLogsBeforeThroughID(ctx, cutoff, batch[len(batch)-1].ID)
		if err != nil {
			return deleted, err
		}
		deleted += n
		if len(batch) < cs.pruneBatchSize {
			return deleted, nil
		}
	}
}

// Delete hard-deletes one record by id.
func (cs *ConsentLogService) Delete(ctx context.Context, id int64) error {

	if id <= 0 {
		return validationError("A positive consent record id is required.")
	}
	deleted, err := cs.store.DeleteConsentLog(ctx, id)
	metrics.ConsentOperations.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	if !deleted {
		return errors2.NewClientError(errors2.CONSENT_LOG_NOT_FOUND, http.StatusNotFound)
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      fmt.Sprint(id),
		TargetType:    log.TargetTypeConsentLog,
		ActionID:      log.ActionDeleteConsent,
	})
	return nil
}

// History returns the full audit trail of a session, oldest first.
func (cs *ConsentLogService) History(ctx context.Context, sessionID string) ([]model.ConsentRecord, error) {

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError("session_id is required.")
	}
	return cs.store.GetConsentHistory(ctx, sessionID)
}

func (cs *ConsentLogService) all(ctx context.Context, filter model.ConsentLogFilter) ([]model.ConsentRecord, error) {

	if err := validateDateRange(filter); err != nil {
		return nil, err
	}
	return cs.store.ListConsentLogs(ctx, filter, constants.ExportPageSize, 0)
}

func (cs *ConsentLogService) aggregate(records []model.ConsentRecord) *model.Statistics {

	stats := &model.Statistics{
		ByRegion:   map[string]int{},
		ByMode:     map[string]int{},
		ByCategory: map[model.Category]model.CategoryCount{},
	}
	categories := map[model.Category]struct{}{}
	for _, category := range model.KnownCategories {
		categories[category] = struct{}{}
	}
	for _, record := range records {
		for category := range record.Categories {
			categories[category] = struct{}{}
		}
	}

	accepted := 0
	for _, record := range records {
		stats.TotalConsents++
		stats.ByRegion[record.Region]++
		stats.ByMode[cs.modeOf(record.Region)]++
		if record.Categories.AnyOptionalGranted() {
			accepted++
		} else {
			stats.TotalRejections++
		}
		for category := range categories {
			count := stats.ByCategory[category]
			if record.Categories.Granted(category) {
				count.Accepted++
			} else {
				count.Rejected++
			}
			stats.ByCategory[category] = count
		}
	}
	if stats.TotalConsents > 0 {
		stats.AcceptanceRate = math.Round(float64(accepted)/float64(stats.TotalConsents)*10000) / 100
	}
	return stats
}

func (cs *ConsentLogService) validatePreferences(prefs model.ConsentPreferences) (*model.ConsentRecord, error) {

	sessionID := strings.TrimSpace(prefs.SessionID)
	if sessionID == "" {
		return nil, validationError("session_id is required.")
	}
	region := strings.ToUpper(strings.TrimSpace(prefs.Region))
	if region == "" {
		return nil, validationError("region is required.")
	}
	categories := prefs.Categories.Normalize()
	if len(categories) == 0 {
		return nil, validationError("At least one consent category is required.")
	}
	source := prefs.Source
	if source == "" {
		source = model.SourceBanner
	}
	if !source.Valid() {
		return nil, validationError(fmt.Sprintf("Unknown consent source '%s'.", source))
	}
	if prefs.UserID < 0 {
		return nil, validationError("user_id must not be negative.")
	}

	return &model.ConsentRecord{
		UserID:        prefs.UserID,
		SessionID:     sessionID,
		Region:        region,
		Categories:    categories,
		Purposes:      prefs.Purposes,
		BannerVersion: prefs.BannerVersion,
		Source:        source,
		IPHash:        prefs.IPHash,
		UserAgentHash: prefs.UserAgentHash,
		Timestamp:     cs.clock().UTC(),
		ExpiryDate:    prefs.ExpiryDate,
		Metadata:      prefs.Metadata,
	}, nil
}

func validateDateRange(filter model.ConsentLogFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.INVALID_FILTER.Code,
			Message:     errors2.INVALID_FILTER.Message,
			Description: "end_date must not be before start_date.",
		}, http.StatusBadRequest)
	}
	return nil
}

func validationError(description string) error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.CONSENT_VALIDATION.Code,
		Message:     errors2.CONSENT_VALIDATION.Message,
		Description: description,
	}, http.StatusBadRequest)
}
