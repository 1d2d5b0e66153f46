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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	// MaxLookupTimeout bounds every remote lookup.
	MaxLookupTimeout = 5 * time.Second
	maxResponseBytes = 64 * 1024
)

// HTTPProvider queries a remote JSON geolocation API. The URL template contains an {ip} placeholder and
// the country is read from the response with a gjson path.
type HTTPProvider struct {
	urlTemplate string
	countryPath string
	timeout     time.Duration
	client      *http.Client
}

// NewHTTPProvider creates an HTTPProvider. Timeouts above MaxLookupTimeout are capped.
func NewHTTPProvider(urlTemplate, countryPath string, timeout time.Duration) *HTTPProvider {

	if timeout <= 0 || timeout > MaxLookupTimeout {
		timeout = MaxLookupTimeout
	}
	if countryPath == "" {
		countryPath = "country_code"
	}
	return &HTTPProvider{
		urlTemplate: urlTemplate,
		countryPath: countryPath,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string {
	return "http"
}

func (p *HTTPProvider) LookupCountry(ctx context.Context, ip string) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	target := strings.ReplaceAll(p.urlTemplate, "{ip}", url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build geolocation request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "geolocation request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrap(err, "failed to read geolocation response")
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("geolocation service returned invalid JSON")
	}
	return strings.ToUpper(strings.TrimSpace(gjson.GetBytes(body, p.countryPath).String())), nil
}
