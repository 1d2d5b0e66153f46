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
	"strings"

	"github.com/wso2/regional-consent-service/internal/region/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

var euCountries = []string{
	"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE",
	"IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE",
	"IS", "LI", "NO",
}

var allRuleIDs = []string{
	"google-analytics", "google-tag-manager", "facebook-pixel", "hotjar", "linkedin-insight",
	"tiktok-pixel", "youtube", "vimeo", "google-maps", "doubleclick",
}

var marketingRuleIDs = []string{
	"facebook-pixel", "linkedin-insight", "tiktok-pixel", "doubleclick",
}

// DefaultPolicies returns the built-in policy table used when the configuration defines no regions.
func DefaultPolicies() []model.Policy {
	return []model.Policy{
		{Region: "EU", Mode: model.ModeGDPR, RequiresPriorConsent: true, BlockingRuleIDs: clone(allRuleIDs), Countries: clone(euCountries)},
		{Region: "UK", Mode: model.ModeGDPR, RequiresPriorConsent: true, BlockingRuleIDs: clone(allRuleIDs), Countries: []string{"GB"}},
		{Region: "US-CA", Mode: model.ModeCCPA, RequiresPriorConsent: false, BlockingRuleIDs: clone(marketingRuleIDs), Countries: []string{"US"}},
		{Region: "BR", Mode: model.ModeLGPD, RequiresPriorConsent: true, BlockingRuleIDs: clone(allRuleIDs), Countries: []string{"BR"}},
		{Region: "ZA", Mode: model.ModePOPIA, RequiresPriorConsent: true, BlockingRuleIDs: clone(allRuleIDs), Countries: []string{"ZA"}},
		{Region: "AU", Mode: model.ModeDefault, Countries: []string{"AU"}},
		{Region: "CA", Mode: model.ModeDefault, Countries: []string{"CA"}},
		DefaultPolicy(),
	}
}

// DefaultPolicy is the opt-out policy applied to unmapped visitors.
func DefaultPolicy() model.Policy {
	return model.Policy{Region: constants.DefaultRegion, Mode: model.ModeDefault}
}

// PoliciesFromConfig converts configured regions into policies, falling back to DefaultPolicies when
// none are configured. Entries without a region code are dropped and unknown modes become "default".
// A DEFAULT policy is appended when the configuration omits it.
func PoliciesFromConfig(regions []config.RegionPolicyConfig) []model.Policy {

	if len(regions) == 0 {
		return DefaultPolicies()
	}

	logger := log.GetLogger()
	policies := make([]model.Policy, 0, len(regions)+1)
	hasDefault := false
	for _, region := range regions {
		code := strings.ToUpper(strings.TrimSpace(region.Region))
		if code == "" {
			logger.Warn("Skipping region policy without a region code")
			continue
		}
		mode := model.Mode(strings.ToLower(region.Mode))
		if !mode.Valid() {
			logger.Warn("Unknown compliance mode, using default", log.String("region", code),
				log.String("mode", region.Mode))
			mode = model.ModeDefault
		}
		countries := make([]string, 0, len(region.Countries))
		for _, country := range region.Countries {
			countries = append(countries, strings.ToUpper(strings.TrimSpace(country)))
		}
		policies = append(policies, model.Policy{
			Region:               code,
			Mode:                 mode,
			RequiresPriorConsent: region.RequiresPriorConsent,
			BlockingRuleIDs:      clone(region.BlockingRuleIDs),
			Countries:            countries,
		})
		if code == constants.DefaultRegion {
			hasDefault = true
		}
	}
	if !hasDefault {
		policies = append(policies, DefaultPolicy())
	}
	return policies
}

func clone(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
