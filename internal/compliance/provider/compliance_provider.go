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

package provider

import (
	"sync"

	"github.com/wso2/regional-consent-service/internal/blocking/catalogue"
	"github.com/wso2/regional-consent-service/internal/compliance/service"
	consentProvider "github.com/wso2/regional-consent-service/internal/consent/provider"
	consentService "github.com/wso2/regional-consent-service/internal/consent/service"
	"github.com/wso2/regional-consent-service/internal/region/geo"
	regionService "github.com/wso2/regional-consent-service/internal/region/service"
	"github.com/wso2/regional-consent-service/internal/signals/emitter"
	signalsService "github.com/wso2/regional-consent-service/internal/signals/service"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// ComplianceProviderInterface defines the interface for the compliance provider.
type ComplianceProviderInterface interface {
	GetConsentOrchestrator() service.ConsentOrchestratorInterface
	GetRegionResolver() regionService.RegionResolverInterface
}

// Components are the process-wide parts shared by every request: the region resolver and its cache,
// the rule catalogue and the signal translator with its emitters.
type Components struct {
	Resolver   *regionService.RegionResolver
	Catalogue  *catalogue.Catalogue
	Translator *signalsService.SignalTranslator
	cleanup    []func()
}

var (
	componentsMu sync.Mutex
	components   *Components
)

// Initialize builds the shared components from cfg. A NATS connection failure falls back to the log
// emitter.
func Initialize(cfg config.Config) *Components {

	componentsMu.Lock()
	defer componentsMu.Unlock()
	if components != nil {
		return components
	}
	components = build(cfg)
	return components
}

// SetComponents installs prebuilt components, used by tests.
func SetComponents(c *Components) {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	components = c
}

// Shutdown releases geo databases and broker connections.
func Shutdown() {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	if components == nil {
		return
	}
	for _, cleanup := range components.cleanup {
		cleanup()
	}
	components = nil
}

func build(cfg config.Config) *Components {

	logger := log.GetLogger()
	c := &Components{}

	providers, closeProviders := geo.NewProvidersFromConfig(cfg.Geo, nil)
	c.cleanup = append(c.cleanup, closeProviders)
	c.Resolver = regionService.NewRegionResolver(regionService.PoliciesFromConfig(cfg.Regions), providers, cfg.Geo.CacheTTL)
	c.Catalogue = catalogue.FromConfig(cfg.BlockingRules)

	var emitters []emitter.Emitter
	if cfg.Events.NATSURL != "" {
		natsEmitter, err := emitter.NewNATSEmitter(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			logger.Error("Failed to connect to NATS, consent events will only be logged", log.Error(err))
		} else {
			emitters = append(emitters, natsEmitter)
			c.cleanup = append(c.cleanup, func() { _ = natsEmitter.Close() })
		}
	}
	if len(emitters) == 0 {
		emitters = append(emitters, emitter.NewLogEmitter())
	}
	c.Translator = signalsService.NewSignalTranslator(signalsService.TranslatorConfigFromConfig(cfg.Signals), emitters...)
	return c
}

// ComplianceProvider is the default implementation of the ComplianceProviderInterface.
type ComplianceProvider struct{}

// NewComplianceProvider creates a new instance of ComplianceProvider.
func NewComplianceProvider() ComplianceProviderInterface {
	return &ComplianceProvider{}
}

// GetConsentOrchestrator returns an orchestrator over the shared components.
func (cp *ComplianceProvider) GetConsentOrchestrator() service.ConsentOrchestratorInterface {

	runtimeConfig := config.GetRCSRuntime().Config
	c := Initialize(runtimeConfig)
	return service.NewConsentOrchestrator(
		c.Resolver,
		c.Catalogue,
		consentProvider.NewConsentLogProvider().GetConsentLogService(),
		c.Translator,
		consentService.NewHasher(runtimeConfig.Consent.HashSalt),
		service.Settings{
			ExpiryDays:    runtimeConfig.Consent.ExpiryDays,
			BannerVersion: runtimeConfig.Consent.BannerVersion,
		},
	)
}

// GetRegionResolver returns the shared region resolver.
func (cp *ComplianceProvider) GetRegionResolver() regionService.RegionResolverInterface {
	return Initialize(config.GetRCSRuntime().Config).Resolver
}
