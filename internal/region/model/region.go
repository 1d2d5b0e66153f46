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

// Mode is the compliance regime applied to a region.
type Mode string

const (
	ModeGDPR    Mode = "gdpr"
	ModeCCPA    Mode = "ccpa"
	ModeLGPD    Mode = "lgpd"
	ModePOPIA   Mode = "popia"
	ModeDefault Mode = "default"
)

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeGDPR, ModeCCPA, ModeLGPD, ModePOPIA, ModeDefault:
		return true
	}
	return false
}

// Policy is the compliance policy of one region. Policies are built once at startup and never
// mutated afterwards.
type Policy struct {
	Region               string   `json:"region"`
	Mode                 Mode     `json:"mode"`
	RequiresPriorConsent bool     `json:"requires_prior_consent"`
	BlockingRuleIDs      []string `json:"blocking_rule_ids"`
	Countries            []string `json:"countries"`
}

// Result is the outcome of resolving a visitor address.
type Result struct {
	Region               string `json:"region"`
	Country              string `json:"country"`
	Mode                 Mode   `json:"mode"`
	RequiresPriorConsent bool   `json:"requires_prior_consent"`
}
