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
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/wso2/regional-consent-service/internal/signals/model"
)

// NATSEmitter publishes events as JSON to "<prefix>.<event name>" subjects.
type NATSEmitter struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSEmitter connects to the NATS server at url.
func NewNATSEmitter(url, subjectPrefix string) (*NATSEmitter, error) {

	conn, err := nats.Connect(url,
		nats.Name("regional-consent-service"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to nats at %s", url)
	}
	return &NATSEmitter{conn: conn, prefix: subjectPrefix}, nil
}

func (e *NATSEmitter) Name() string {
	return "nats"
}

// Subject returns the subject an event name is published on.
func (e *NATSEmitter) Subject(eventName string) string {
	if e.prefix == "" {
		return eventName
	}
	return e.prefix + "." + eventName
}

func (e *NATSEmitter) Emit(_ context.Context, event model.Event) error {

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal consent event")
	}
	if err := e.conn.Publish(e.Subject(event.Name), data); err != nil {
		return errors.Wrapf(err, "failed to publish %s", e.Subject(event.Name))
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (e *NATSEmitter) Close() error {
	return e.conn.Drain()
}
