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
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Hasher produces pseudonymous, deterministic digests of visitor identifiers using keyed BLAKE2b-256.
// The same salt always yields the same digest for the same input.
type Hasher struct {
	key []byte
}

// NewHasher creates a Hasher keyed by salt. Salts longer than the BLAKE2b key limit are compressed.
func NewHasher(salt string) *Hasher {

	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Hasher{key: key}
}

// HashIP hashes a client address. Returns an empty string for an empty address.
func (h *Hasher) HashIP(ip string) string {
	return h.hash("ip:", strings.TrimSpace(ip))
}

// HashUserAgent hashes a user agent string. Returns an empty string for an empty user agent.
func (h *Hasher) HashUserAgent(userAgent string) string {
	return h.hash("ua:", strings.TrimSpace(userAgent))
}

func (h *Hasher) hash(domain, value string) string {
	if value == "" {
		return ""
	}
	// Key length is validated in NewHasher, so New256 cannot fail.
	digest, _ := blake2b.New256(h.key)
	digest.Write([]byte(domain))
	digest.Write([]byte(value))
	return hex.EncodeToString(digest.Sum(nil))
}

// GenerateSessionID returns a random version 4 UUID.
func GenerateSessionID() string {
	return uuid.NewString()
}
