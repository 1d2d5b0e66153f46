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

package config

import (
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultPort          = 8900
	defaultCacheTTL      = time.Hour
	defaultGeoTimeout    = 5 * time.Second
	defaultRetentionDays = 365
	defaultExpiryDays    = 365
	defaultSubjectPrefix = "consent"
)

// LoadConfig reads the YAML file under rcsHome, expands environment variables and applies defaults.
func LoadConfig(rcsHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(rcsHome, filePath))
	if err != nil {
		return nil, err
	}
	return ParseConfig(file)
}

// ParseConfig parses raw YAML configuration bytes.
func ParseConfig(raw []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset values. Region and country codes are upper-cased here so every
// consumer sees normalized codes.
func (c *Config) ApplyDefaults() {
	if c.Addr.Port == 0 {
		c.Addr.Port = defaultPort
	}
	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "INFO"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DataSource.Type == "" {
		c.DataSource.Type = "postgres"
	}
	if c.DataSource.SSLMode == "" {
		c.DataSource.SSLMode = "disable"
	}
	if c.Geo.CacheTTL <= 0 {
		c.Geo.CacheTTL = defaultCacheTTL
	}
	if c.Geo.HTTP.Timeout <= 0 || c.Geo.HTTP.Timeout > defaultGeoTimeout {
		c.Geo.HTTP.Timeout = defaultGeoTimeout
	}
	if c.Geo.HTTP.CountryPath == "" {
		c.Geo.HTTP.CountryPath = "country_code"
	}
	if c.Consent.RetentionDays <= 0 {
		c.Consent.RetentionDays = defaultRetentionDays
	}
	if c.Consent.ExpiryDays <= 0 {
		c.Consent.ExpiryDays = defaultExpiryDays
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = defaultSubjectPrefix
	}
	if c.Auth.AdminScope == "" {
		c.Auth.AdminScope = "consent:admin"
	}

	for i := range c.Regions {
		c.Regions[i].Region = strings.ToUpper(strings.TrimSpace(c.Regions[i].Region))
		c.Regions[i].Mode = strings.ToLower(strings.TrimSpace(c.Regions[i].Mode))
		for j := range c.Regions[i].Countries {
			c.Regions[i].Countries[j] = strings.ToUpper(strings.TrimSpace(c.Regions[i].Countries[j]))
		}
	}
	overrides := make(map[string]string, len(c.Geo.Overrides))
	for ip, country := range c.Geo.Overrides {
		overrides[strings.TrimSpace(ip)] = strings.ToUpper(strings.TrimSpace(country))
	}
	c.Geo.Overrides = overrides
}

// OverrideRCSRuntime replaces the runtime configuration, used by tests and tools.
func OverrideRCSRuntime(conf Config) {
	runtimeConfig = &RCSRuntime{
		Config: conf,
	}
}
