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

import "sync"

// RCSRuntime holds the runtime configuration for the consent service.
type RCSRuntime struct {
	RCSHome string `yaml:"rcs_home"`
	Config  Config `yaml:"config"`
}

var (
	runtimeConfig *RCSRuntime
	once          sync.Once
)

// InitializeRCSRuntime initializes the RCSRuntime configuration.
func InitializeRCSRuntime(rcsHome string, config *Config) error {

	once.Do(func() {
		runtimeConfig = &RCSRuntime{
			RCSHome: rcsHome,
			Config:  *config,
		}
	})

	return nil
}

// GetRCSRuntime returns the RCSRuntime configuration.
func GetRCSRuntime() *RCSRuntime {

	if runtimeConfig == nil {
		panic("RCSRuntime is not initialized")
	}
	return runtimeConfig
}
