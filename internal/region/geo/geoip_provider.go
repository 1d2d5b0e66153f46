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
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/pkg/errors"
)

// GeoIPProvider answers from a local MaxMind GeoLite2 or GeoIP2 country database.
type GeoIPProvider struct {
	reader *geoip2.Reader
}

// NewGeoIPProvider opens the database at path. The caller must Close the provider.
func NewGeoIPProvider(path string) (*GeoIPProvider, error) {

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open geoip database %s", path)
	}
	return &GeoIPProvider{reader: reader}, nil
}

func (p *GeoIPProvider) Name() string {
	return "geoip"
}

func (p *GeoIPProvider) LookupCountry(_ context.Context, ip string) (string, error) {

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", nil
	}
	record, err := p.reader.Country(parsed)
	if err != nil {
		return "", errors.Wrap(err, "geoip lookup failed")
	}
	return record.Country.IsoCode, nil
}

// Close releases the database.
func (p *GeoIPProvider) Close() error {
	return p.reader.Close()
}
