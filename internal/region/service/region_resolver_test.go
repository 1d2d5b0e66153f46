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
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/region/geo"
	"github.com/wso2/regional-consent-service/internal/region/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type stubProvider struct {
	name      string
	countries map[string]string
	err       error
	calls     atomic.Int32
	delay     time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) LookupCountry(_ context.Context, ip string) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.countries[ip], nil
}

func TestResolve_MapsCountryToRegion(t *testing.T) {
	provider := &stubProvider{name: "stub", countries: map[string]string{"81.2.69.142": "de"}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	result := resolver.Resolve(context.Background(), "81.2.69.142")
	assert.Equal(t, "EU", result.Region)
	assert.Equal(t, "DE", result.Country)
	assert.Equal(t, model.ModeGDPR, result.Mode)
	assert.True(t, result.RequiresPriorConsent)
}

func TestResolve_UnresolvableFallsBackToDefault(t *testing.T) {
	provider := &stubProvider{name: "stub", countries: map[string]string{}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	for _, ip := range []string{"198.51.100.7", "not-an-ip", "", "10.0.0.4", "127.0.0.1"} {
		result := resolver.Resolve(context.Background(), ip)
		assert.Equal(t, "DEFAULT", result.Region, ip)
		assert.Equal(t, model.ModeDefault, result.Mode, ip)
		assert.False(t, result.RequiresPriorConsent, ip)
	}
	// Private, loopback and unparsable addresses never reach a provider.
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestResolve_OverrideAppliesToPrivateAddresses(t *testing.T) {
	remote := &stubProvider{name: "remote", countries: map[string]string{"10.0.0.5": "US"}}
	overrides := geo.NewOverrideProvider(map[string]string{"10.0.0.5": "DE"}, func(_ context.Context, ip string) string {
		if ip == "127.0.0.1" {
			return "za"
		}
		return ""
	})
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{overrides, remote}, time.Hour)

	result := resolver.Resolve(context.Background(), "10.0.0.5")
	assert.Equal(t, "EU", result.Region)
	assert.Equal(t, "DE", result.Country)

	result = resolver.Resolve(context.Background(), "127.0.0.1")
	assert.Equal(t, "ZA", result.Region)
	assert.Equal(t, "ZA", result.Country)

	result = resolver.Resolve(context.Background(), "192.168.1.20")
	assert.Equal(t, "DEFAULT", result.Region)
	assert.Equal(t, int32(0), remote.calls.Load())
}

func TestResolve_UnmappedCountryFallsBackToDefault(t *testing.T) {
	provider := &stubProvider{name: "stub", countries: map[string]string{"203.0.113.5": "JP"}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	result := resolver.Resolve(context.Background(), "203.0.113.5")
	assert.Equal(t, "DEFAULT", result.Region)
	assert.Equal(t, "JP", result.Country)
}

func TestResolve_CacheHitSkipsProviders(t *testing.T) {
	provider := &stubProvider{name: "stub", countries: map[string]string{"81.2.69.142": "FR"}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	first := resolver.Resolve(context.Background(), "81.2.69.142")
	second := resolver.Resolve(context.Background(), "81.2.69.142")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestResolve_ProviderErrorFallsThroughChain(t *testing.T) {
	failing := &stubProvider{name: "failing", err: errors.New("boom")}
	working := &stubProvider{name: "working", countries: map[string]string{"81.2.69.142": "GB"}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{failing, working}, time.Hour)

	result := resolver.Resolve(context.Background(), "81.2.69.142")
	assert.Equal(t, "UK", result.Region)
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestResolve_AllProvidersFailingIsNotCached(t *testing.T) {
	failing := &stubProvider{name: "failing", err: errors.New("timeout")}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{failing}, time.Hour)

	assert.Equal(t, "DEFAULT", resolver.Resolve(context.Background(), "81.2.69.142").Region)
	assert.Equal(t, "DEFAULT", resolver.Resolve(context.Background(), "81.2.69.142").Region)
	assert.Equal(t, int32(2), failing.calls.Load())
}

func TestResolve_CoalescesConcurrentMisses(t *testing.T) {
	provider := &stubProvider{name: "slow", countries: map[string]string{"81.2.69.142": "BR"}, delay: 50 * time.Millisecond}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "BR", resolver.Resolve(context.Background(), "81.2.69.142").Region)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestResolveWithOverride(t *testing.T) {
	provider := &stubProvider{name: "stub", countries: map[string]string{"81.2.69.142": "DE"}}
	resolver := NewRegionResolver(DefaultPolicies(), []geo.CountryProvider{provider}, time.Hour)

	result := resolver.ResolveWithOverride(context.Background(), "81.2.69.142", "us-ca")
	assert.Equal(t, "US-CA", result.Region)
	assert.Equal(t, model.ModeCCPA, result.Mode)
	assert.Equal(t, int32(0), provider.calls.Load())

	for _, override := range []string{"<script>", "MARS", "e"} {
		result = resolver.ResolveWithOverride(context.Background(), "81.2.69.142", override)
		assert.Equal(t, "EU", result.Region, override)
	}
}

func TestPoliciesFromConfig(t *testing.T) {
	policies := PoliciesFromConfig([]config.RegionPolicyConfig{
		{Region: "eu", Mode: "GDPR", RequiresPriorConsent: true, Countries: []string{"de", "fr"}, BlockingRuleIDs: []string{"hotjar"}},
		{Region: "", Mode: "gdpr"},
		{Region: "JP", Mode: "appi", Countries: []string{"JP"}},
	})

	require.Len(t, policies, 3)
	assert.Equal(t, "EU", policies[0].Region)
	assert.Equal(t, []string{"DE", "FR"}, policies[0].Countries)
	assert.Equal(t, model.ModeDefault, policies[1].Mode)
	assert.Equal(t, "DEFAULT", policies[2].Region)

	assert.Len(t, PoliciesFromConfig(nil), len(DefaultPolicies()))
}

func TestPolicies_PreservesOrder(t *testing.T) {
	resolver := NewRegionResolver(DefaultPolicies(), nil, time.Hour)
	var regions []string
	for _, policy := range resolver.Policies() {
		regions = append(regions, policy.Region)
	}
	assert.Equal(t, []string{"EU", "UK", "US-CA", "BR", "ZA", "AU", "CA", "DEFAULT"}, regions)

	policy, ok := resolver.Policy("uk")
	require.True(t, ok)
	assert.Equal(t, []string{"GB"}, policy.Countries)
}
