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
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/signals/model"
)

// DeriveGCM maps consents to Consent Mode v2. ad_user_data needs both marketing and functional.
func DeriveGCM(consents consentModel.Categories, opts model.GCMOptions) model.GCMPayload {

	analytics := consents.Granted(consentModel.CategoryAnalytics)
	marketing := consents.Granted(consentModel.CategoryMarketing)
	functional := consents.Granted(consentModel.CategoryFunctional)

	return model.GCMPayload{
		AnalyticsStorage:  state(opts.AnalyticsStorage && analytics),
		AdStorage:         state(opts.AdStorage && marketing),
		AdUserData:        state(opts.AdUserData && marketing && functional),
		AdPersonalization: state(opts.AdPersonalization && marketing),
	}
}

// DeriveTCFLite builds the simplified TCF payload.
func DeriveTCFLite(consents consentModel.Categories, purposes, vendors map[string]interface{}) model.TCFLite {

	return model.TCFLite{
		GDPRApplies: true,
		Consents: model.TCFConsents{
			Necessary:  true,
			Analytics:  consents.Granted(consentModel.CategoryAnalytics),
			Marketing:  consents.Granted(consentModel.CategoryMarketing),
			Functional: consents.Granted(consentModel.CategoryFunctional),
		},
		Purposes: purposes,
		Vendors:  vendors,
	}
}

// DeriveGPPLite returns the opt-out token unless marketing is granted and no opt-out is forced.
func DeriveGPPLite(consents consentModel.Categories, opts model.GPPOptions) string {

	if opts.OptOut || !consents.Granted(consentModel.CategoryMarketing) {
		return model.GPPOptOut
	}
	return model.GPPOptIn
}

// DeriveDataLayerEvent builds the data-layer consent update event.
func DeriveDataLayerEvent(consents consentModel.Categories, opts model.DataLayerOptions) model.DataLayerEvent {

	analytics := consents.Granted(consentModel.CategoryAnalytics)
	marketing := consents.Granted(consentModel.CategoryMarketing)
	functional := consents.Granted(consentModel.CategoryFunctional)

	event := model.DataLayerEvent{
		Event:       "consent_update",
		Necessary:   true,
		Analytics:   analytics,
		Marketing:   marketing,
		Functional:  functional,
		AllGranted:  analytics && marketing && functional,
		AllRejected: !analytics && !marketing && !functional,
		Timestamp:   opts.Timestamp.UnixMilli(),
	}
	if opts.IncludeGCM {
		gcm := DeriveGCM(consents, opts.GCM)
		event.ConsentUpdate = &gcm
	}
	return event
}

// DeriveCCPANotice returns the do-not-sell notice payload.
func DeriveCCPANotice() model.CCPANotice {
	return model.CCPANotice{NoticeType: "do_not_sell_link", Applied: true}
}

func state(granted bool) string {
	if granted {
		return model.Granted
	}
	return model.Denied
}
