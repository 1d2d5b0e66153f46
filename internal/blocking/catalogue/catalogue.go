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

package catalogue

import (
	"strings"

	"github.com/wso2/regional-consent-service/internal/blocking/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// Catalogue is an immutable, ordered set of rules addressable by id.
type Catalogue struct {
	rules map[string]model.Rule
	order []string
}

// New builds a catalogue. Later rules with an id already present replace the earlier definition in place.
func New(rules []model.Rule) *Catalogue {

	c := &Catalogue{rules: make(map[string]model.Rule, len(rules))}
	for _, rule := range rules {
		if _, exists := c.rules[rule.ID]; !exists {
			c.order = append(c.order, rule.ID)
		}
		c.rules[rule.ID] = rule
	}
	return c
}

// Lookup returns the rule with the given id.
func (c *Catalogue) Lookup(id string) (model.Rule, bool) {
	rule, ok := c.rules[id]
	return rule, ok
}

// Rules returns every rule in catalogue order.
func (c *Catalogue) Rules() []model.Rule {
	rules := make([]model.Rule, 0, len(c.order))
	for _, id := range c.order {
		rules = append(rules, c.rules[id])
	}
	return rules
}

// DefaultRules is the built-in pattern library for common analytics, marketing and embed providers.
func DefaultRules() []model.Rule {
	return []model.Rule{
		{ID: "google-analytics", ResourceKind: model.KindExternalScript, Pattern: `(google-analytics\.com/(analytics|ga)\.js|googletagmanager\.com/gtag/js)`, IsRegex: true, RequiredCategory: "analytics", Action: model.ActionBlockUntilConsent},
		{ID: "google-tag-manager", ResourceKind: model.KindExternalScript, Pattern: "googletagmanager.com/gtm.js", RequiredCategory: "analytics", Action: model.ActionBlockUntilConsent},
		{ID: "facebook-pixel", ResourceKind: model.KindExternalScript, Pattern: "connect.facebook.net", RequiredCategory: "marketing", Action: model.ActionBlockUntilConsent},
		{ID: "hotjar", ResourceKind: model.KindExternalScript, Pattern: "static.hotjar.com", RequiredCategory: "analytics", Action: model.ActionBlockUntilConsent},
		{ID: "linkedin-insight", ResourceKind: model.KindExternalScript, Pattern: "snap.licdn.com", RequiredCategory: "marketing", Action: model.ActionBlockUntilConsent},
		{ID: "tiktok-pixel", ResourceKind: model.KindExternalScript, Pattern: "analytics.tiktok.com", RequiredCategory: "marketing", Action: model.ActionBlockUntilConsent},
		{ID: "youtube", ResourceKind: model.KindIframe, Pattern: `(youtube\.com|youtube-nocookie\.com|youtu\.be)/`, IsRegex: true, RequiredCategory: "marketing", Action: model.ActionReplaceWithPlaceholder},
		{ID: "vimeo", ResourceKind: model.KindIframe, Pattern: "player.vimeo.com", RequiredCategory: "functional", Action: model.ActionReplaceWithPlaceholder},
		{ID: "google-maps", ResourceKind: model.KindIframe, Pattern: `(google\.[a-z.]+/maps|maps\.googleapis\.com)`, IsRegex: true, RequiredCategory: "functional", Action: model.ActionReplaceWithPlaceholder},
		{ID: "doubleclick", ResourceKind: model.KindPixel, Pattern: "doubleclick.net", RequiredCategory: "marketing", Action: model.ActionBlockUntilConsent},
	}
}

// FromConfig returns the default catalogue extended or overridden by configured rules.
func FromConfig(configured []config.BlockingRuleConfig) *Catalogue {

	rules := DefaultRules()
	for _, rule := range configured {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			log.GetLogger().Warn("Skipping configured blocking rule without an id")
			continue
		}
		action := model.Action(rule.Action)
		if action == "" {
			action = model.ActionBlockUntilConsent
		}
		rules = append(rules, model.Rule{
			ID:               id,
			ResourceKind:     model.ResourceKind(rule.ResourceKind),
			Pattern:          rule.Pattern,
			IsRegex:          rule.IsRegex,
			RequiredCategory: strings.ToLower(strings.TrimSpace(rule.RequiredCategory)),
			Action:           action,
		})
	}
	return New(rules)
}
