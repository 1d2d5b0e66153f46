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

// Signal protocols.
const (
	ProtocolGCM  = "gcm"
	ProtocolCCPA = "ccpa"
	ProtocolTCF  = "tcf"
	ProtocolGPP  = "gpp"
)

// Consent Mode states.
const (
	Granted = "granted"
	Denied  = "denied"
)

// GPP-lite tokens.
const (
	GPPOptOut = "1---"
	GPPOptIn  = "1NYN"
)

// GCMPayload is a Google Consent Mode v2 update.
type GCMPayload struct {
	AnalyticsStorage  string `json:"analytics_storage"`
	AdStorage         string `json:"ad_storage"`
	AdUserData        string `json:"ad_user_data"`
	AdPersonalization string `json:"ad_personalization"`
}

// GCMOptions enables each Consent Mode field. A disabled field is always denied.
type GCMOptions struct {
	AnalyticsStorage  bool
	AdStorage         bool
	AdUserData        bool
	AdPersonalization bool
}

// AllGCMFields enables every Consent Mode field.
func AllGCMFields() GCMOptions {
	return GCMOptions{AnalyticsStorage: true, AdStorage: true, AdUserData: true, AdPersonalization: true}
}

// TCFConsents is the per-category block of a TCF-lite payload.
type TCFConsents struct {
	Necessary  bool `json:"necessary"`
	Analytics  bool `json:"analytics"`
	Marketing  bool `json:"marketing"`
	Functional bool `json:"functional"`
}

// TCFLite is a simplified TCF-shaped payload. Purposes and vendors pass through unvalidated.
type TCFLite struct {
	GDPRApplies bool                   `json:"gdprApplies"`
	Consents    TCFConsents            `json:"consents"`
	Purposes    map[string]interface{} `json:"purposes,omitempty"`
	Vendors     map[string]interface{} `json:"vendors,omitempty"`
}

// GPPOptions configures GPP-lite derivation.
type GPPOptions struct {
	OptOut bool
}

// CCPANotice is emitted for California visitors instead of Consent Mode.
type CCPANotice struct {
	NoticeType string `json:"notice_type"`
	Applied    bool   `json:"applied"`
}

// DataLayerOptions configures data-layer event derivation.
type DataLayerOptions struct {
	IncludeGCM bool
	GCM        GCMOptions
	Timestamp  time.Time
}

// DataLayerEvent is pushed to the page's data layer when consent changes.
type DataLayerEvent struct {
	Event         string      `json:"event"`
	Necessary     bool        `json:"necessary"`
	Analytics     bool        `json:"analytics"`
	Marketing     bool        `json:"marketing"`
	Functional    bool        `json:"functional"`
	AllGranted    bool        `json:"all_granted"`
	AllRejected   bool        `json:"all_rejected"`
	Timestamp     int64       `json:"timestamp"`
	ConsentUpdate *GCMPayload `json:"consentUpdate,omitempty"`
}

// RegionalSignals is the signal bundle of a region, keyed by protocol.
type RegionalSignals struct {
	Region  string                 `json:"region"`
	Signals map[string]interface{} `json:"signals"`
}

// Event names published to emitters.
const (
	EventSignals = "signals"
	EventChanged = "changed"
)

// Event is a notification published by the translator.
type Event struct {
	Name       string      `json:"name"`
	Region     string      `json:"region"`
	SessionID  string      `json:"session_id,omitempty"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}
