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

package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/wso2/regional-consent-service/internal/system/database/scripts"
	"github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// generateLockKey hashes a string key to the bigint expected by PostgreSQL advisory locks.
func generateLockKey(key string) int64 {

	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// LockSessionTx takes a transaction scoped lock on the given consent session. The lock is
// released on commit or rollback. Dialects without advisory locks rely on their own write
// serialization and return immediately.
func LockSessionTx(ctx context.Context, tx *sql.Tx, dialect, sessionID string) error {

	query, ok := scripts.LockSession[dialect]
	if !ok {
		return nil
	}

	lockID := generateLockKey("consent-session:" + sessionID)
	logger := log.GetLogger()
	logger.Debug(fmt.Sprintf("Acquiring session lock: %d", lockID))

	rows, err := tx.QueryContext(ctx, query, lockID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to acquire advisory lock for session: %s", sessionID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_ACQUIRE.Code,
			Message:     errors.LOCK_ACQUIRE.Message,
			Description: errorMsg,
		}, err)
	}
	return rows.Close()
}
