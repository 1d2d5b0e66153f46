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

package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the visitor address from the first header in headers that carries a valid public
// IP, falling back to the connection's remote address. Returns an empty string when nothing parses.
func ClientIP(r *http.Request, headers []string) string {

	for _, header := range headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			ip := parseHostIP(part)
			if IsPublicIP(ip) {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseHostIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

// IsPublicIP reports whether ip is routable, i.e. not private, loopback, link-local or unspecified.
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}

// parseHostIP parses a bare IP or an IP with a trailing port, as sent in CloudFront-Viewer-Address.
func parseHostIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if ip := net.ParseIP(strings.Trim(s, "[]")); ip != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return net.ParseIP(host)
	}
	// IPv6 with a port but without brackets, e.g. "2404:6800:4004::200e:44321".
	if i := strings.LastIndex(s, ":"); i != -1 {
		return net.ParseIP(s[:i])
	}
	return nil
}
