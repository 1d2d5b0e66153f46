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
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// NewProvidersFromConfig builds the provider chain in lookup order: overrides, the local database when
// configured, then the remote API when enabled. The returned cleanup function closes opened resources.
func NewProvidersFromConfig(geoConfig config.GeoConfig, hook OverrideHook) ([]CountryProvider, func()) {

	logger := log.GetLogger()
	providers := []CountryProvider{NewOverrideProvider(geoConfig.Overrides, hook)}
	cleanup := func() {}

	if geoConfig.GeoIPDatabase != "" {
		geoIP, err := NewGeoIPProvider(geoConfig.GeoIPDatabase)
		if err != nil {
			logger.Warn("GeoIP database unavailable, skipping local lookups", log.Error(err))
		} else {
			providers = append(providers, geoIP)
			cleanup = func() {
				_ = geoIP.Close()
			}
		}
	}

	if geoConfig.HTTP.Enabled && geoConfig.HTTP.URL != "" {
		providers = append(providers, NewHTTPProvider(geoConfig.HTTP.URL, geoConfig.HTTP.CountryPath, geoConfig.HTTP.Timeout))
	}
	return providers, cleanup
}
