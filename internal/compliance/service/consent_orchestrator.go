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
	"strings"
	"time"

	"github.com/wso2/regional-consent-service/internal/blocking/catalogue"
	"github.com/wso2/regional-consent-service/internal/blocking/engine"
	blockingModel "github.com/wso2/regional-consent-service/internal/blocking/model"
	"github.com/wso2/regional-consent-service/internal/compliance/model"
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	consentService "github.com/wso2/regional-consent-service/internal/consent/service"
	regionModel "github.com/wso2/regional-consent-service/internal/region/model"
	regionService "github.com/wso2/regional-consent-service/internal/region/service"
	signalsService "github.com/wso2/regional-consent-service/internal/signals/service"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// ConsentOrchestratorInterface composes region resolution, blocking, consent storage and signals.
type ConsentOrchestratorInterface interface {
	Evaluate(ctx context.Context, ip, sessionID, regionOverride string, resources ...string) *model.Evaluation
	SavePreferences(ctx context.Context, req model.SaveRequest) (*model.SaveResult, error)
	Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.WithdrawResult, error)
	NewEngine(region string) *engine.BlockingEngine
}

// Settings holds the consent defaults applied by the orchestrator.
type Settings struct {
	ExpiryDays    int
	BannerVersion string
}

// ConsentOrchestrator is the default implementation of ConsentOrchestratorInterface.
type ConsentOrchestrator struct {
	resolver   regionService.RegionResolverInterface
	catalogue  *catalogue.Catalogue
	consents   consentService.ConsentLogServiceInterface
	translator *signalsService.SignalTranslator
	hasher     *consentService.Hasher
	settings   Settings
	clock      func() time.Time
}

// NewConsentOrchestrator wires the orchestrator.
func NewConsentOrchestrator(resolver regionService.RegionResolverInterface, cat *catalogue.Catalogue,
	consents consentService.ConsentLogServiceInterface, translator *signalsService.SignalTranslator,
	hasher *consentService.Hasher, settings Settings) *ConsentOrchestrator {

	return &ConsentOrchestrator{
		resolver:   resolver,
		catalogue:  cat,
		consents:   consents,
		translator: translator,
		hasher:     hasher,
		settings:   settings,
		clock:      time.Now,
	}
}

// NewEngine returns a fresh blocking engine loaded with the rules of region's policy.
func (o *ConsentOrchestrator) NewEngine(region string) *engine.BlockingEngine {

	blocker := engine.NewBlockingEngine(o.catalogue)
	if policy, ok := o.resolver.Policy(region); ok {
		blocker.LoadRulesForRegion(policy)
	}
	return blocker
}

// Evaluate resolves the caller's region and effective consent, and reports which rules block and
// which signals apply. Each of resources (a tag or bare URL) is checked against the region's rules
// and reported when blocked. Nothing is persisted or published. It never fails: a storage error is
// treated as no stored consent and the region default applies.
func (o *ConsentOrchestrator) Evaluate(ctx context.Context, ip, sessionID, regionOverride string,
	resources ...string) *model.Evaluation {

	result := o.resolver.ResolveWithOverride(ctx, ip, regionOverride)
	consents, stored := o.effectiveConsents(ctx, result, strings.TrimSpace(sessionID))

	blocker := o.NewEngine(result.Region)
	blocked := make([]string, 0)
	var placeholders []blockingModel.Placeholder
	for _, rule := range blocker.Rules() {
		if consents.Granted(consentModel.Category(rule.RequiredCategory)) {
			continue
		}
		blocked = append(blocked, rule.ID)
		if rule.ResourceKind == blockingModel.KindIframe || rule.Action == blockingModel.ActionReplaceWithPlaceholder {
			placeholders = append(placeholders, blocker.IframePlaceholder(rule, consents))
		}
	}

	for _, resource := range resources {
		blocker.QueueBlocked(resource, consents)
	}

	return &model.Evaluation{
		Region:           result,
		SessionID:        strings.TrimSpace(sessionID),
		Consents:         consents,
		StoredConsent:    stored,
		BlockedRuleIDs:   blocked,
		Placeholders:     placeholders,
		BlockedResources: blocker.Queued(),
		Signals:          o.translator.Translate(ctx, consents, result.Region),
		DataLayer:        o.translator.DataLayerEvent(consents),
	}
}

// SavePreferences persists a consent decision and publishes the resulting signals. A session id is
// generated when absent and the region is resolved from the client when not given. The client
// address and user agent are stored hashed only.
func (o *ConsentOrchestrator) SavePreferences(ctx context.Context, req model.SaveRequest) (*model.SaveResult, error) {

	prefs := req.Preferences
	prefs.SessionID = strings.TrimSpace(prefs.SessionID)
	if prefs.SessionID == "" {
		prefs.SessionID = consentService.GenerateSessionID()
	}
	if strings.TrimSpace(prefs.Region) == "" {
		prefs.Region = o.resolver.ResolveWithOverride(ctx, req.ClientIP, req.RegionOverride).Region
	}
	if prefs.BannerVersion == "" {
		prefs.BannerVersion = o.settings.BannerVersion
	}
	if prefs.IPHash == "" {
		prefs.IPHash = o.hasher.HashIP(req.ClientIP)
	}
	if prefs.UserAgentHash == "" {
		prefs.UserAgentHash = o.hasher.HashUserAgent(req.UserAgent)
	}
	if prefs.ExpiryDate == nil && o.settings.ExpiryDays > 0 {
		expiry := o.clock().UTC().AddDate(0, 0, o.settings.ExpiryDays)
		prefs.ExpiryDate = &expiry
	}

	id, err := o.consents.Save(ctx, prefs)
	if err != nil {
		return nil, err
	}

	region := strings.ToUpper(strings.TrimSpace(prefs.Region))
	consents := prefs.Categories.Normalize()
	consents[consentModel.CategoryNecessary] = true
	signals := o.translator.EmitRegionalSignals(ctx, consents, region, prefs.SessionID)

	return &model.SaveResult{
		ID:        id,
		SessionID: prefs.SessionID,
		Region:    region,
		Consents:  consents,
		Signals:   signals,
	}, nil
}

// Withdraw withdraws consent and publishes the signals of the remaining consent state. After a full
// withdrawal only necessary stays granted.
func (o *ConsentOrchestrator) Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.WithdrawResult, error) {

	sessionID := strings.TrimSpace(req.SessionID)
	region := ""
	if sessionID != "" {
		if current, err := o.consents.CurrentStatus(ctx, sessionID, 0); err == nil && current != nil {
			region = current.Region
		}
	}

	if err := o.consents.Withdraw(ctx, sessionID, req.Categories); err != nil {
		return nil, err
	}
	if region == "" {
		region = o.resolver.Resolve(ctx, req.ClientIP).Region
	}

	consents := consentModel.NecessaryOnly()
	if len(req.Categories) > 0 {
		current, err := o.consents.CurrentStatus(ctx, sessionID, 0)
		if err != nil {
			log.GetLogger().Warn("Failed to read consent after withdrawal", log.String("session_id", sessionID),
				log.Error(err))
		} else if current != nil {
			consents = current.Categories
			region = current.Region
		}
	}

	signals := o.translator.EmitRegionalSignals(ctx, consents, region, sessionID)
	return &model.WithdrawResult{
		SessionID: sessionID,
		Region:    region,
		Consents:  consents,
		Signals:   signals,
	}, nil
}

// effectiveConsents returns the stored consent of the session when active and unexpired, otherwise
// the region default: necessary only under prior-consent regimes, everything elsewhere.
func (o *ConsentOrchestrator) effectiveConsents(ctx context.Context, result regionModel.Result,
	sessionID string) (consentModel.Categories, bool) {

	if sessionID != "" {
		current, err := o.consents.CurrentStatus(ctx, sessionID, 0)
		if err != nil {
			log.GetLogger().Warn("Failed to read consent status, failing closed", log.String("session_id", sessionID),
				log.Error(err))
			return consentModel.NecessaryOnly(), false
		}
		if current != nil && !o.expired(current) {
			consents := make(consentModel.Categories, len(current.Categories)+1)
			for category, granted := range current.Categories {
				consents[category] = granted
			}
			consents[consentModel.CategoryNecessary] = true
			return consents, true
		}
	}
	if result.RequiresPriorConsent {
		return consentModel.NecessaryOnly(), false
	}
	return consentModel.AllGranted(), false
}

func (o *ConsentOrchestrator) expired(record *consentModel.ConsentRecord) bool {
	return record.ExpiryDate != nil && !record.ExpiryDate.After(o.clock())
}
