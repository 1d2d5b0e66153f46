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

import (
	blockingModel "github.com/wso2/regional-consent-service/internal/blocking/model"
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	regionModel "github.com/wso2/regional-consent-service/internal/region/model"
	signalsModel "github.com/wso2/regional-consent-service/internal/signals/model"
)

// Evaluation is the compliance decision for one request.
type Evaluation struct {
	Region           regionModel.Result             `json:"region"`
	SessionID        string                         `json:"session_id,omitempty"`
	Consents         consentModel.Categories        `json:"consents"`
	StoredConsent    bool                           `json:"stored_consent"`
	BlockedRuleIDs   []string                       `json:"blocked_rule_ids"`
	Placeholders     []blockingModel.Placeholder    `json:"placeholders,omitempty"`
	BlockedResources []blockingModel.QueuedResource `json:"blocked_resources,omitempty"`
	Signals          signalsModel.RegionalSignals   `json:"signals"`
	DataLayer        signalsModel.DataLayerEvent    `json:"data_layer"`
}

// SaveRequest is a consent decision submitted by a visitor.
type SaveRequest struct {
	Preferences    consentModel.ConsentPreferences
	ClientIP       string
	UserAgent      string
	RegionOverride string
}

// SaveResult describes a persisted consent decision.
type SaveResult struct {
	ID        int64                        `json:"id"`
	SessionID string                       `json:"session_id"`
	Region    string                       `json:"region"`
	Consents  consentModel.Categories      `json:"consents"`
	Signals   signalsModel.RegionalSignals `json:"signals"`
}

// WithdrawRequest withdraws some or all categories of a session.
type WithdrawRequest struct {
	SessionID  string
	Categories []consentModel.Category
	ClientIP   string
}

// WithdrawResult is the consent state after a withdrawal.
type WithdrawResult struct {
	SessionID string                       `json:"session_id"`
	Region    string                       `json:"region"`
	Consents  consentModel.Categories      `json:"consents"`
	Signals   signalsModel.RegionalSignals `json:"signals"`
}
