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
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/blocking/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func TestDefaultRulesAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range DefaultRules() {
		assert.False(t, seen[rule.ID], rule.ID)
		seen[rule.ID] = true
		assert.True(t, rule.ResourceKind.Valid(), rule.ID)
		assert.True(t, rule.Action.Valid(), rule.ID)
		if rule.IsRegex {
			_, err := regexp.Compile(rule.Pattern)
			assert.NoError(t, err, rule.ID)
		}
	}
	assert.Len(t, seen, 10)
}

func TestFromConfig_OverridesAndExtends(t *testing.T) {
	cat := FromConfig([]config.BlockingRuleConfig{
		{ID: "hotjar", ResourceKind: "external_script", Pattern: "hotjar.io", RequiredCategory: "Marketing"},
		{ID: "matomo", ResourceKind: "external_script", Pattern: "matomo.js", RequiredCategory: "analytics", Action: "block_until_consent"},
		{ID: " ", Pattern: "ignored"},
	})

	hotjar, ok := cat.Lookup("hotjar")
	require.True(t, ok)
	assert.Equal(t, "hotjar.io", hotjar.Pattern)
	assert.Equal(t, "marketing", hotjar.RequiredCategory)
	assert.Equal(t, model.ActionBlockUntilConsent, hotjar.Action)

	_, ok = cat.Lookup("matomo")
	assert.True(t, ok)

	rules := cat.Rules()
	assert.Len(t, rules, 11)
	assert.Equal(t, "google-analytics", rules[0].ID)
	assert.Equal(t, "matomo", rules[10].ID)
}
