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

package geo

import (
	"context"
	"strings"
)

// CountryProvider looks up the ISO 3166 alpha-2 country of an IP address. An empty country with a nil
// error means the provider has no answer.
type CountryProvider interface {
	Name() string
	LookupCountry(ctx context.Context, ip string) (string, error)
}

// NonPublicProvider is implemented by providers that can answer for private and loopback addresses.
// Other providers are only consulted for public addresses.
type NonPublicProvider interface {
	ResolvesNonPublic() bool
}

// OverrideHook is consulted after the static overrides and may return a country for any address.
type OverrideHook func(ctx context.Context, ip string) string

// OverrideProvider answers from a static IP to country table and an optional hook.
type OverrideProvider struct {
	overrides map[string]string
	hook      OverrideHook
}

// NewOverrideProvider creates an OverrideProvider. hook may be nil.
func NewOverrideProvider(overrides map[string]string, hook OverrideHook) *OverrideProvider {

	normalized := make(map[string]string, len(overrides))
	for ip, country := range overrides {
		normalized[strings.TrimSpace(ip)] = strings.ToUpper(strings.TrimSpace(country))
	}
	return &OverrideProvider{
		overrides: normalized,
		hook:      hook,
	}
}

func (p *OverrideProvider) Name() string {
	return "override"
}

// ResolvesNonPublic reports true; overrides may name any address.
func (p *OverrideProvider) ResolvesNonPublic() bool {
	return true
}

func (p *OverrideProvider) LookupCountry(ctx context.Context, ip string) (string, error) {

	if country, ok := p.overrides[ip]; ok {
		return country, nil
	}
	if p.hook != nil {
		return strings.ToUpper(strings.TrimSpace(p.hook(ctx, ip))), nil
	}
	return "", nil
}
