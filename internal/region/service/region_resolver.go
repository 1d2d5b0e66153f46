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
	"encoding/hex"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/wso2/regional-consent-service/internal/region/geo"
	"github.com/wso2/regional-consent-service/internal/region/model"
	"github.com/wso2/regional-consent-service/internal/system/cache"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	"github.com/wso2/regional-consent-service/internal/system/log"
	"github.com/wso2/regional-consent-service/internal/system/metrics"
	"github.com/wso2/regional-consent-service/internal/system/utils"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

var regionCodePattern = regexp.MustCompile(`^[A-Z]{2,8}(-[A-Z0-9]{1,8})?$`)

type RegionResolverInterface interface {
	Resolve(ctx context.Context, ip string) model.Result
	ResolveWithOverride(ctx context.Context, ip, region string) model.Result
	Policy(region string) (model.Policy, bool)
	Policies() []model.Policy
}

// RegionResolver maps visitor addresses to region policies. It is safe for concurrent use.
type RegionResolver struct {
	policies     map[string]model.Policy
	order        []string
	countryIndex map[string]string
	providers    []geo.CountryProvider
	cache        *cache.Cache[model.Result]
	group        singleflight.Group
}

// NewRegionResolver builds the country index from the policies. When two policies claim the same
// country the first one wins.
func NewRegionResolver(policies []model.Policy, providers []geo.CountryProvider, ttl time.Duration) *RegionResolver {

	logger := log.GetLogger()
	resolver := &RegionResolver{
		policies:     make(map[string]model.Policy, len(policies)),
		countryIndex: make(map[string]string),
		providers:    providers,
		cache:        cache.NewCache[model.Result](ttl),
	}
	for _, policy := range policies {
		if _, exists := resolver.policies[policy.Region]; exists {
			logger.Warn("Duplicate region policy ignored", log.String("region", policy.Region))
			continue
		}
		resolver.policies[policy.Region] = policy
		resolver.order = append(resolver.order, policy.Region)
		for _, country := range policy.Countries {
			if owner, taken := resolver.countryIndex[country]; taken {
				logger.Warn("Country already mapped to another region", log.String("country", country),
					log.String("region", owner))
				continue
			}
			resolver.countryIndex[country] = policy.Region
		}
	}
	if _, ok := resolver.policies[constants.DefaultRegion]; !ok {
		resolver.policies[constants.DefaultRegion] = DefaultPolicy()
		resolver.order = append(resolver.order, constants.DefaultRegion)
	}
	return resolver
}

// Resolve returns the region policy for ip. It never fails: lookup errors and unknown countries
// resolve to DEFAULT.
func (r *RegionResolver) Resolve(ctx context.Context, ip string) model.Result {

	ip = strings.TrimSpace(ip)
	key := cacheKey(ip)
	if result, found := r.cache.Get(key); found {
		metrics.RegionResolutions.WithLabelValues(result.Region, "cache").Inc()
		return result
	}

	value, _, _ := r.group.Do(key, func() (interface{}, error) {
		if result, found := r.cache.Get(key); found {
			return result, nil
		}
		country, cacheable := r.lookupCountry(ctx, ip)
		result := r.resultFor(country)
		if cacheable {
			r.cache.Set(key, result)
		}
		metrics.RegionResolutions.WithLabelValues(result.Region, "lookup").Inc()
		return result, nil
	})
	return value.(model.Result)
}

// ResolveWithOverride returns the policy of region when it names a configured region. A malformed or
// unknown override is ignored and the address is resolved instead.
func (r *RegionResolver) ResolveWithOverride(ctx context.Context, ip, region string) model.Result {

	code := strings.ToUpper(strings.TrimSpace(region))
	if code != "" {
		if regionCodePattern.MatchString(code) {
			if policy, ok := r.policies[code]; ok {
				metrics.RegionResolutions.WithLabelValues(code, "override").Inc()
				return model.Result{
					Region:               policy.Region,
					Mode:                 policy.Mode,
					RequiresPriorConsent: policy.RequiresPriorConsent,
				}
			}
		}
		log.GetLogger().Debug("Ignoring invalid region override", log.String("region", region))
	}
	return r.Resolve(ctx, ip)
}

// Policy returns the policy of a region code.
func (r *RegionResolver) Policy(region string) (model.Policy, bool) {
	policy, ok := r.policies[strings.ToUpper(region)]
	return policy, ok
}

// Policies returns all policies in configuration order.
func (r *RegionResolver) Policies() []model.Policy {
	policies := make([]model.Policy, 0, len(r.order))
	for _, region := range r.order {
		policies = append(policies, r.policies[region])
	}
	return policies
}

// lookupCountry walks the provider chain. Private and loopback addresses only reach providers that
// resolve non-public addresses, such as the override table. The result is not cacheable when every
// consulted provider failed.
func (r *RegionResolver) lookupCountry(ctx context.Context, ip string) (string, bool) {

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", true
	}
	public := utils.IsPublicIP(parsed)

	logger := log.GetLogger()
	failures := 0
	consulted := 0
	for _, provider := range r.providers {
		if !public && !resolvesNonPublic(provider) {
			continue
		}
		consulted++
		country, err := provider.LookupCountry(ctx, parsed.String())
		if err != nil {
			failures++
			metrics.GeoProviderErrors.WithLabelValues(provider.Name()).Inc()
			logger.Debug("Country lookup failed", log.String("provider", provider.Name()), log.Error(err))
			continue
		}
		if country = strings.ToUpper(strings.TrimSpace(country)); country != "" {
			return country, true
		}
	}
	return "", failures == 0 || failures < consulted
}

func resolvesNonPublic(provider geo.CountryProvider) bool {
	local, ok := provider.(geo.NonPublicProvider)
	return ok && local.ResolvesNonPublic()
}

func (r *RegionResolver) resultFor(country string) model.Result {

	region, ok := r.countryIndex[country]
	if !ok || country == "" {
		region = constants.DefaultRegion
	}
	policy := r.policies[region]
	return model.Result{
		Region:               policy.Region,
		Country:              country,
		Mode:                 policy.Mode,
		RequiresPriorConsent: policy.RequiresPriorConsent,
	}
}

func cacheKey(ip string) string {
	sum := blake2b.Sum256([]byte(ip))
	return "region:" + hex.EncodeToString(sum[:16])
}
