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

package emitter

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/wso2/regional-consent-service/internal/signals/model"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// Emitter publishes translator events to an external consumer.
type Emitter interface {
	Name() string
	Emit(ctx context.Context, event model.Event) error
}

// LogEmitter writes events to the service log. It is used when no broker is configured.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Name() string {
	return "log"
}

func (e *LogEmitter) Emit(_ context.Context, event model.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	log.GetLogger().Debug("Consent event", log.String("event", event.Name), log.String("region", event.Region),
		log.String("payload", string(payload)))
	return nil
}
