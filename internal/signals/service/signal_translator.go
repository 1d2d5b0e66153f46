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
	"strings"
	"time"

	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/signals/emitter"
	"github.com/wso2/regional-consent-service/internal/signals/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
	"github.com/wso2/regional-consent-service/internal/system/metrics"
)

// PostProcessor may modify a signal bundle before it leaves the translator.
type PostProcessor func(ctx context.Context, signals *model.RegionalSignals)

// TranslatorConfig is the data-driven protocol policy of the translator.
type TranslatorConfig struct {
	Protocols             map[string][]string
	GCM                   model.GCMOptions
	GPP                   model.GPPOptions
	IncludeGCMInDataLayer bool
	TCFPurposes           map[string]interface{}
	TCFVendors            map[string]interface{}
}

// DefaultProtocols returns the built-in region to protocol policy.
func DefaultProtocols() map[string][]string {
	return map[string][]string{
		"EU":    {model.ProtocolGCM},
		"UK":    {model.ProtocolGCM},
		"BR":    {model.ProtocolGCM},
		"AU":    {model.ProtocolGCM},
		"CA":    {model.ProtocolGCM},
		"ZA":    {model.ProtocolGCM},
		"US-CA": {model.ProtocolCCPA},
	}
}

// DefaultTranslatorConfig returns the built-in policy with every Consent Mode field enabled.
func DefaultTranslatorConfig() TranslatorConfig {
	return TranslatorConfig{
		Protocols: DefaultProtocols(),
		GCM:       model.AllGCMFields(),
	}
}

// TranslatorConfigFromConfig converts the signals configuration. Regions without configured
// protocols keep the built-in policy.
func TranslatorConfigFromConfig(signalsConfig config.SignalsConfig) TranslatorConfig {

	cfg := DefaultTranslatorConfig()
	for region, protocols := range signalsConfig.Protocols {
		normalized := make([]string, 0, len(protocols))
		for _, protocol := range protocols {
			normalized = append(normalized, strings.ToLower(strings.TrimSpace(protocol)))
		}
		cfg.Protocols[strings.ToUpper(strings.TrimSpace(region))] = normalized
	}
	cfg.GCM = model.GCMOptions{
		AnalyticsStorage:  !signalsConfig.GCM.DisableAnalyticsStorage,
		AdStorage:         !signalsConfig.GCM.DisableAdStorage,
		AdUserData:        !signalsConfig.GCM.DisableAdUserData,
		AdPersonalization: !signalsConfig.GCM.DisableAdPersonalization,
	}
	cfg.GPP = model.GPPOptions{OptOut: signalsConfig.GPPOptOut}
	cfg.IncludeGCMInDataLayer = signalsConfig.IncludeGCMInDataLayer
	cfg.TCFPurposes = stringKeyed(signalsConfig.TCFPurposes)
	cfg.TCFVendors = stringKeyed(signalsConfig.TCFVendors)
	return cfg
}

// stringKeyed converts YAML decoded nested maps so they can be encoded as JSON.
func stringKeyed(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for key, value := range in {
		out[key] = stringKeyedValue(value)
	}
	return out
}

func stringKeyedValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, nested := range v {
			out[fmt.Sprint(key)] = stringKeyedValue(nested)
		}
		return out
	case map[string]interface{}:
		return stringKeyed(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, nested := range v {
			out[i] = stringKeyedValue(nested)
		}
		return out
	default:
		return value
	}
}

// SignalTranslator derives regional signal bundles and publishes them to emitters.
type SignalTranslator struct {
	cfg            TranslatorConfig
	postProcessors []PostProcessor
	emitters       []emitter.Emitter
	clock          func() time.Time
}

// NewSignalTranslator creates a translator publishing to the given emitters.
func NewSignalTranslator(cfg TranslatorConfig, emitters ...emitter.Emitter) *SignalTranslator {
	if cfg.Protocols == nil {
		cfg.Protocols = DefaultProtocols()
	}
	return &SignalTranslator{
		cfg:      cfg,
		emitters: emitters,
		clock:    time.Now,
	}
}

// AddPostProcessor registers a post-processor. Post-processors run in registration order.
func (t *SignalTranslator) AddPostProcessor(processor PostProcessor) {
	t.postProcessors = append(t.postProcessors, processor)
}

// Translate derives the signal bundle of region without publishing anything. Regions without a
// protocol policy get an empty bundle.
func (t *SignalTranslator) Translate(ctx context.Context, consents consentModel.Categories, region string) model.RegionalSignals {

	region = strings.ToUpper(strings.TrimSpace(region))
	bundle := model.RegionalSignals{
		Region:  region,
		Signals: map[string]interface{}{},
	}
	for _, protocol := range t.cfg.Protocols[region] {
		switch protocol {
		case model.ProtocolGCM:
			bundle.Signals[protocol] = DeriveGCM(consents, t.cfg.GCM)
		case model.ProtocolCCPA:
			bundle.Signals[protocol] = DeriveCCPANotice()
		case model.ProtocolTCF:
			bundle.Signals[protocol] = DeriveTCFLite(consents, t.cfg.TCFPurposes, t.cfg.TCFVendors)
		case model.ProtocolGPP:
			bundle.Signals[protocol] = DeriveGPPLite(consents, t.cfg.GPP)
		default:
			log.GetLogger().Debug("Skipping unknown signal protocol", log.String("protocol", protocol),
				log.String("region", region))
		}
	}
	for _, processor := range t.postProcessors {
		processor(ctx, &bundle)
	}
	if bundle.Signals == nil {
		bundle.Signals = map[string]interface{}{}
	}
	return bundle
}

// DataLayerEvent derives the data-layer event for consents using the configured options.
func (t *SignalTranslator) DataLayerEvent(consents consentModel.Categories) model.DataLayerEvent {
	return DeriveDataLayerEvent(consents, model.DataLayerOptions{
		IncludeGCM: t.cfg.IncludeGCMInDataLayer,
		GCM:        t.cfg.GCM,
		Timestamp:  t.clock(),
	})
}

// EmitRegionalSignals translates consents and publishes the bundle, when not empty, and a changed
// event. Emitter failures are logged and never returned.
func (t *SignalTranslator) EmitRegionalSignals(ctx context.Context, consents consentModel.Categories, region, sessionID string) model.RegionalSignals {

	bundle := t.Translate(ctx, consents, region)
	now := t.clock().UTC()

	if len(bundle.Signals) > 0 {
		t.publish(ctx, model.Event{
			Name:       model.EventSignals,
			Region:     bundle.Region,
			SessionID:  sessionID,
			Payload:    bundle,
			OccurredAt: now,
		})
		for protocol := range bundle.Signals {
			metrics.SignalsEmitted.WithLabelValues(protocol).Inc()
		}
	}
	t.publish(ctx, model.Event{
		Name:       model.EventChanged,
		Region:     bundle.Region,
		SessionID:  sessionID,
		Payload:    t.DataLayerEvent(consents),
		OccurredAt: now,
	})
	return bundle
}

func (t *SignalTranslator) publish(ctx context.Context, event model.Event) {
	for _, e := range t.emitters {
		if err := e.Emit(ctx, event); err != nil {
			metrics.EmitterErrors.WithLabelValues(e.Name()).Inc()
			log.GetLogger().Warn("Failed to emit consent event", log.String("emitter", e.Name()),
				log.String("event", event.Name), log.Error(err))
		}
	}
}
