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

package model

import "time"

// ResourceKind is the kind of page resource a rule guards.
type ResourceKind string

const (
	KindExternalScript ResourceKind = "external_script"
	KindInlineScript   ResourceKind = "inline_script"
	KindIframe         ResourceKind = "iframe"
	KindPixel          ResourceKind = "pixel"
)

// Valid reports whether k is a supported resource kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case KindExternalScript, KindInlineScript, KindIframe, KindPixel:
		return true
	}
	return false
}

// Action is what the presentation layer does with a blocked resource.
type Action string

const (
	ActionBlockUntilConsent      Action = "block_until_consent"
	ActionReplaceWithPlaceholder Action = "replace_with_placeholder"
)

// Valid reports whether a is a supported action.
func (a Action) Valid() bool {
	return a == ActionBlockUntilConsent || a == ActionReplaceWithPlaceholder
}

// Rule gates resources matching Pattern behind RequiredCategory.
type Rule struct {
	ID               string       `json:"id"`
	ResourceKind     ResourceKind `json:"resource_kind"`
	Pattern          string       `json:"pattern"`
	IsRegex          bool         `json:"is_regex"`
	RequiredCategory string       `json:"required_category"`
	Action           Action       `json:"action"`
}

// QueuedResource is a blocked resource waiting for consent.
type QueuedResource struct {
	ResourceTag      string    `json:"resource_tag"`
	URL              string    `json:"url"`
	RuleID           string    `json:"rule_id"`
	RequiredCategory string    `json:"required_category"`
	QueuedAt         time.Time `json:"queued_at"`
}

// Placeholder describes what to render in place of a blocked embed.
type Placeholder struct {
	RuleID   string `json:"rule_id"`
	Category string `json:"category"`
	Granted  bool   `json:"granted"`
	Message  string `json:"message"`
	Markup   string `json:"markup"`
}
