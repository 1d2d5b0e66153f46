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

import "time"

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	Format   string `yaml:"format"`
}

type AuthConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	JWTSecret          string   `yaml:"jwt_secret"`
	Audience           string   `yaml:"audience"`
	Issuer             string   `yaml:"issuer"`
	AdminScope         string   `yaml:"admin_scope"`
}

// DataSourceConfig describes the consent log database. Type is either "postgres" or "sqlite".
type DataSourceConfig struct {
	Type         string `yaml:"type"`
	Hostname     string `yaml:"hostname"`
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"sslmode"`
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type GeoHTTPConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	CountryPath string        `yaml:"country_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

type GeoConfig struct {
	CacheTTL       time.Duration     `yaml:"cache_ttl"`
	Overrides      map[string]string `yaml:"overrides"`
	GeoIPDatabase  string            `yaml:"geoip_database"`
	HTTP           GeoHTTPConfig     `yaml:"http"`
	TrustedHeaders []string          `yaml:"trusted_headers"`
}

type RegionPolicyConfig struct {
	Region               string   `yaml:"region"`
	Mode                 string   `yaml:"mode"`
	RequiresPriorConsent bool     `yaml:"requires_prior_consent"`
	BlockingRuleIDs      []string `yaml:"blocking_rule_ids"`
	Countries            []string `yaml:"countries"`
}

type BlockingRuleConfig struct {
	ID               string `yaml:"id"`
	ResourceKind     string `yaml:"resource_kind"`
	Pattern          string `yaml:"pattern"`
	IsRegex          bool   `yaml:"is_regex"`
	RequiredCategory string `yaml:"required_category"`
	Action           string `yaml:"action"`
}

type GCMConfig struct {
	DisableAnalyticsStorage  bool `yaml:"disable_analytics_storage"`
	DisableAdStorage         bool `yaml:"disable_ad_storage"`
	DisableAdUserData        bool `yaml:"disable_ad_user_data"`
	DisableAdPersonalization bool `yaml:"disable_ad_personalization"`
}

type SignalsConfig struct {
	Protocols             map[string][]string    `yaml:"protocols"`
	GCM                   GCMConfig              `yaml:"gcm"`
	GPPOptOut             bool                   `yaml:"gpp_opt_out"`
	IncludeGCMInDataLayer bool                   `yaml:"include_gcm_in_datalayer"`
	TCFPurposes           map[string]interface{} `yaml:"tcf_purposes"`
	TCFVendors            map[string]interface{} `yaml:"tcf_vendors"`
}

type ConsentConfig struct {
	HashSalt      string `yaml:"hash_salt"`
	RetentionDays int    `yaml:"retention_days"`
	ExpiryDays    int    `yaml:"expiry_days"`
	BannerVersion string `yaml:"banner_version"`
}

type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AWSRegion string `yaml:"aws_region"`
}

type Config struct {
	Addr          AddrConfig           `yaml:"addr"`
	Log           LogConfig            `yaml:"log"`
	Auth          AuthConfig           `yaml:"auth"`
	DataSource    DataSourceConfig     `yaml:"datasource"`
	Geo           GeoConfig            `yaml:"geo"`
	Regions       []RegionPolicyConfig `yaml:"regions"`
	BlockingRules []BlockingRuleConfig `yaml:"blocking_rules"`
	Signals       SignalsConfig        `yaml:"signals"`
	Consent       ConsentConfig        `yaml:"consent"`
	Events        EventsConfig         `yaml:"events"`
	Archive       ArchiveConfig        `yaml:"archive"`
}
