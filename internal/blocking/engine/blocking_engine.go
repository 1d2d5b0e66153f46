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

package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wso2/regional-consent-service/internal/blocking/catalogue"
	"github.com/wso2/regional-consent-service/internal/blocking/model"
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	regionModel "github.com/wso2/regional-consent-service/internal/region/model"
	"github.com/wso2/regional-consent-service/internal/system/log"
	"github.com/wso2/regional-consent-service/internal/system/metrics"
	"golang.org/x/net/html"
)

type compiledRule struct {
	rule  model.Rule
	regex *regexp.Regexp
}

// BlockingEngine holds the rules registered for one request and the resources blocked so far.
// It is not safe for concurrent use; create one engine per request.
type BlockingEngine struct {
	catalogue *catalogue.Catalogue
	rules     []compiledRule
	ids       map[string]struct{}
	queue     []model.QueuedResource
	clock     func() time.Time
}

// NewBlockingEngine creates an empty engine resolving rule ids against cat.
func NewBlockingEngine(cat *catalogue.Catalogue) *BlockingEngine {
	return &BlockingEngine{
		catalogue: cat,
		ids:       map[string]struct{}{},
		clock:     time.Now,
	}
}

// RegisterRule adds a rule after the ones already registered. It returns false, leaving the registry
// unchanged, when the id is taken, a required field is missing, the kind or action is unknown or the
// regex does not compile.
func (e *BlockingEngine) RegisterRule(rule model.Rule) bool {

	logger := log.GetLogger()
	if rule.ID == "" || rule.Pattern == "" || rule.RequiredCategory == "" {
		logger.Debug("Rejected blocking rule with missing fields", log.String("rule_id", rule.ID))
		return false
	}
	if _, exists := e.ids[rule.ID]; exists {
		logger.Debug("Rejected duplicate blocking rule", log.String("rule_id", rule.ID))
		return false
	}
	if !rule.ResourceKind.Valid() || !rule.Action.Valid() {
		logger.Debug("Rejected blocking rule with unknown kind or action", log.String("rule_id", rule.ID))
		return false
	}

	compiled := compiledRule{rule: rule}
	if rule.IsRegex {
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			logger.Warn("Rejected blocking rule with invalid pattern", log.String("rule_id", rule.ID), log.Error(err))
			return false
		}
		compiled.regex = regex
	}
	e.rules = append(e.rules, compiled)
	e.ids[rule.ID] = struct{}{}
	return true
}

// LoadRulesForRegion registers the policy's rules in the order the policy lists them. Unknown ids are
// skipped. Returns the number of rules registered.
func (e *BlockingEngine) LoadRulesForRegion(policy regionModel.Policy) int {

	registered := 0
	for _, id := range policy.BlockingRuleIDs {
		rule, ok := e.catalogue.Lookup(id)
		if !ok {
			continue
		}
		if e.RegisterRule(rule) {
			registered++
		}
	}
	return registered
}

// ShouldBlock returns the first registered rule that matches resourceURL and whose category is not
// granted, or nil when the resource may load. Matching rules whose category is granted do not stop
// the scan.
func (e *BlockingEngine) ShouldBlock(resourceURL string, consents consentModel.Categories) *model.Rule {

	if resourceURL == "" {
		return nil
	}
	for i := range e.rules {
		if !e.rules[i].matches(resourceURL) {
			continue
		}
		if consents.Granted(consentModel.Category(e.rules[i].rule.RequiredCategory)) {
			continue
		}
		rule := e.rules[i].rule
		return &rule
	}
	return nil
}

// QueueBlocked queues resourceTag for replay when the resource it references is blocked.
func (e *BlockingEngine) QueueBlocked(resourceTag string, consents consentModel.Categories) bool {

	resourceURL := ExtractResourceURL(resourceTag)
	rule := e.ShouldBlock(resourceURL, consents)
	if rule == nil {
		return false
	}
	e.queue = append(e.queue, model.QueuedResource{
		ResourceTag:      resourceTag,
		URL:              resourceURL,
		RuleID:           rule.ID,
		RequiredCategory: rule.RequiredCategory,
		QueuedAt:         e.clock().UTC(),
	})
	metrics.BlockedResources.WithLabelValues(rule.ID, rule.RequiredCategory).Inc()
	return true
}

// Replay removes and returns, in queue order, the tags whose category is now granted. The rest stay
// queued.
func (e *BlockingEngine) Replay(consents consentModel.Categories) []string {

	var released []string
	remaining := e.queue[:0]
	for _, queued := range e.queue {
		if consents.Granted(consentModel.Category(queued.RequiredCategory)) {
			released = append(released, queued.ResourceTag)
			metrics.ReplayedResources.WithLabelValues(queued.RequiredCategory).Inc()
			continue
		}
		remaining = append(remaining, queued)
	}
	e.queue = remaining
	return released
}

// IframePlaceholder describes the placeholder shown instead of an embed blocked by rule.
func (e *BlockingEngine) IframePlaceholder(rule model.Rule, consents consentModel.Categories) model.Placeholder {
	return IframePlaceholder(rule, consents)
}

// Rules returns a copy of the registered rules in registration order.
func (e *BlockingEngine) Rules() []model.Rule {
	rules := make([]model.Rule, 0, len(e.rules))
	for _, compiled := range e.rules {
		rules = append(rules, compiled.rule)
	}
	return rules
}

// Queued returns a snapshot of the replay queue.
func (e *BlockingEngine) Queued() []model.QueuedResource {
	queued := make([]model.QueuedResource, len(e.queue))
	copy(queued, e.queue)
	return queued
}

// IframePlaceholder is a pure function of its inputs.
func IframePlaceholder(rule model.Rule, consents consentModel.Categories) model.Placeholder {

	category := rule.RequiredCategory
	message := fmt.Sprintf("This content is blocked until you allow %s cookies.", category)
	markup := fmt.Sprintf(`<div class="rcs-placeholder" data-rule-id="%s" data-category="%s">`+
		`<p>%s</p><button type="button" class="rcs-accept" data-category="%s">Allow %s</button></div>`,
		html.EscapeString(rule.ID), html.EscapeString(category), html.EscapeString(message),
		html.EscapeString(category), html.EscapeString(category))
	return model.Placeholder{
		RuleID:   rule.ID,
		Category: category,
		Granted:  consents.Granted(consentModel.Category(category)),
		Message:  message,
		Markup:   markup,
	}
}

func (c compiledRule) matches(resourceURL string) bool {
	if c.regex != nil {
		return c.regex.MatchString(resourceURL)
	}
	return strings.Contains(resourceURL, c.rule.Pattern)
}
