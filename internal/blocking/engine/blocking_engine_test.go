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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/blocking/catalogue"
	"github.com/wso2/regional-consent-service/internal/blocking/model"
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	regionModel "github.com/wso2/regional-consent-service/internal/region/model"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func newEngine() *BlockingEngine {
	return NewBlockingEngine(catalogue.New(catalogue.DefaultRules()))
}

func rule(id, pattern, category string) model.Rule {
	return model.Rule{
		ID:               id,
		ResourceKind:     model.KindExternalScript,
		Pattern:          pattern,
		RequiredCategory: category,
		Action:           model.ActionBlockUntilConsent,
	}
}

func TestRegisterRule(t *testing.T) {
	e := newEngine()

	assert.True(t, e.RegisterRule(rule("ga", "google-analytics.com", "analytics")))
	assert.False(t, e.RegisterRule(rule("ga", "other.com", "marketing")), "duplicate id")
	assert.False(t, e.RegisterRule(rule("", "x.com", "analytics")), "missing id")
	assert.False(t, e.RegisterRule(rule("p", "", "analytics")), "missing pattern")
	assert.False(t, e.RegisterRule(rule("c", "x.com", "")), "missing category")

	badKind := rule("k", "x.com", "analytics")
	badKind.ResourceKind = "stylesheet"
	assert.False(t, e.RegisterRule(badKind))

	badAction := rule("a", "x.com", "analytics")
	badAction.Action = "delete"
	assert.False(t, e.RegisterRule(badAction))

	badRegex := rule("r", "([a-z", "analytics")
	badRegex.IsRegex = true
	assert.False(t, e.RegisterRule(badRegex))

	rules := e.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "google-analytics.com", rules[0].Pattern, "duplicate must not overwrite")

	rules[0].Pattern = "mutated"
	assert.Equal(t, "google-analytics.com", e.Rules()[0].Pattern)
}

func TestShouldBlock(t *testing.T) {
	e := newEngine()
	require.True(t, e.RegisterRule(rule("ga", "google-analytics.com", "analytics")))
	fb := rule("fb", `connect\.facebook\.net/.+/fbevents\.js`, "marketing")
	fb.IsRegex = true
	require.True(t, e.RegisterRule(fb))

	denied := consentModel.Categories{"necessary": true}

	assert.Nil(t, e.ShouldBlock("https://cdn.example.com/app.js", denied), "unmatched URL is never blocked")
	assert.Nil(t, e.ShouldBlock("https://www.google-analytics.com/analytics.js",
		consentModel.Categories{"analytics": true}), "granted category is never blocked")

	blocked := e.ShouldBlock("https://www.google-analytics.com/analytics.js", denied)
	require.NotNil(t, blocked)
	assert.Equal(t, "ga", blocked.ID)

	blocked = e.ShouldBlock("https://connect.facebook.net/en_US/fbevents.js", denied)
	require.NotNil(t, blocked)
	assert.Equal(t, "fb", blocked.ID)

	assert.Nil(t, e.ShouldBlock("", denied))
}

func TestShouldBlock_GrantedMatchContinuesScan(t *testing.T) {
	e := newEngine()
	require.True(t, e.RegisterRule(rule("tag-analytics", "tags.example.com", "analytics")))
	require.True(t, e.RegisterRule(rule("tag-marketing", "tags.example.com/ads", "marketing")))

	blocked := e.ShouldBlock("https://tags.example.com/ads/pixel.js", consentModel.Categories{"analytics": true})
	require.NotNil(t, blocked)
	assert.Equal(t, "tag-marketing", blocked.ID)

	assert.Nil(t, e.ShouldBlock("https://tags.example.com/ads/pixel.js",
		consentModel.Categories{"analytics": true, "marketing": true}))
}

func TestShouldBlock_NecessaryAlwaysGranted(t *testing.T) {
	e := newEngine()
	require.True(t, e.RegisterRule(rule("core", "cdn.example.com", "necessary")))
	assert.Nil(t, e.ShouldBlock("https://cdn.example.com/core.js", consentModel.Categories{"necessary": false}))
}

func TestLoadRulesForRegion(t *testing.T) {
	e := newEngine()
	registered := e.LoadRulesForRegion(regionModel.Policy{
		Region:          "EU",
		BlockingRuleIDs: []string{"hotjar", "does-not-exist", "google-analytics", "hotjar"},
	})
	assert.Equal(t, 2, registered)

	var ids []string
	for _, r := range e.Rules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"hotjar", "google-analytics"}, ids)
}

func TestQueueAndReplay(t *testing.T) {
	e := newEngine()
	e.LoadRulesForRegion(regionModel.Policy{BlockingRuleIDs: []string{"google-analytics", "facebook-pixel", "youtube"}})
	denied := consentModel.Categories{}

	gaTag := `<script async src="https://www.googletagmanager.com/gtag/js?id=G-123"></script>`
	fbTag := `<script>!function(f,b,e,v){n=f.fbq=function(){};t=b.createElement(e);t.src='https://connect.facebook.net/en_US/fbevents.js'}(window,document,'script');</script>`
	ytTag := `<iframe data-src="https://www.youtube.com/embed/abc" width="560"></iframe>`
	plain := `<script src="/assets/app.js"></script>`

	assert.True(t, e.QueueBlocked(gaTag, denied))
	assert.True(t, e.QueueBlocked(fbTag, denied))
	assert.True(t, e.QueueBlocked(ytTag, denied))
	assert.False(t, e.QueueBlocked(plain, denied))
	require.Len(t, e.Queued(), 3)
	assert.Equal(t, "google-analytics", e.Queued()[0].RuleID)
	assert.Equal(t, "https://www.googletagmanager.com/gtag/js?id=G-123", e.Queued()[0].URL)

	released := e.Replay(consentModel.Categories{"analytics": true})
	assert.Equal(t, []string{gaTag}, released)
	require.Len(t, e.Queued(), 2)

	assert.Empty(t, e.Replay(consentModel.Categories{"analytics": true}), "replayed entries are not re-emitted")

	released = e.Replay(consentModel.Categories{"marketing": true})
	assert.Equal(t, []string{fbTag, ytTag}, released)
	assert.Empty(t, e.Queued())
}

func TestExtractResourceURL(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		{tag: `<script src="https://a.example/x.js"></script>`, want: "https://a.example/x.js"},
		{tag: `<img src="https://ad.doubleclick.net/p.gif" width=1>`, want: "https://ad.doubleclick.net/p.gif"},
		{tag: `<iframe src='https://player.vimeo.com/video/1'></iframe>`, want: "https://player.vimeo.com/video/1"},
		{tag: `<link rel="preload" href="https://a.example/f.woff2">`, want: "https://a.example/f.woff2"},
		{tag: `<object data="https://a.example/embed"></object>`, want: "https://a.example/embed"},
		{tag: `<script>console.log("hi")</script>`, want: `console.log("hi")`},
		{tag: `  https://static.hotjar.com/c/hotjar.js  `, want: "https://static.hotjar.com/c/hotjar.js"},
		{tag: `<div></div>`, want: ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractResourceURL(tc.tag), tc.tag)
	}
}

func TestIframePlaceholder(t *testing.T) {
	r := model.Rule{ID: "youtube", RequiredCategory: "marketing", ResourceKind: model.KindIframe,
		Action: model.ActionReplaceWithPlaceholder, Pattern: "youtube.com"}

	first := IframePlaceholder(r, consentModel.Categories{})
	second := newEngine().IframePlaceholder(r, consentModel.Categories{})
	assert.Equal(t, first, second)
	assert.Equal(t, "youtube", first.RuleID)
	assert.Equal(t, "marketing", first.Category)
	assert.False(t, first.Granted)
	assert.Contains(t, first.Markup, `data-rule-id="youtube"`)
	assert.Contains(t, first.Markup, `data-category="marketing"`)

	assert.True(t, IframePlaceholder(r, consentModel.Categories{"marketing": true}).Granted)

	hostile := IframePlaceholder(model.Rule{ID: `"><script>`, RequiredCategory: "x"}, nil)
	assert.NotContains(t, hostile.Markup, "<script>")
}
