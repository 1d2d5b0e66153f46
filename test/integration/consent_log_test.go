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

//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/consent/service"
	"github.com/wso2/regional-consent-service/internal/consent/store"
	"github.com/wso2/regional-consent-service/internal/system/database/provider"
)

func newService(opts ...service.Option) *service.ConsentLogService {
	return service.NewConsentLogService(store.NewConsentLogStore(provider.NewDBProvider()), opts...)
}

func TestPostgres_SaveWithdrawAndHistory(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Save(ctx, model.ConsentPreferences{
		SessionID:  "pg-s1",
		Region:     "EU",
		Categories: model.Categories{"analytics": true, "marketing": true},
		Purposes:   map[string]interface{}{"1": true},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(ctx, "pg-s1", []model.Category{model.CategoryMarketing}))

	current, err := svc.CurrentStatus(ctx, "pg-s1", 0)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, model.SourceWithdraw, current.Source)
	assert.False(t, current.Categories.Granted(model.CategoryMarketing))
	assert.True(t, current.Categories.Granted(model.CategoryAnalytics))
	assert.Equal(t, true, current.Purposes["1"])

	history, err := svc.History(ctx, "pg-s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotNil(t, history[0].WithdrawnAt)
	assert.Nil(t, history[1].WithdrawnAt)
}

func TestPostgres_ConcurrentPartialWithdrawalsSerialize(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Save(ctx, model.ConsentPreferences{
		SessionID:  "pg-race",
		Region:     "EU",
		Categories: model.AllGranted(),
	})
	require.NoError(t, err)

	categories := []model.Category{model.CategoryAnalytics, model.CategoryMarketing, model.CategoryFunctional}
	var wg sync.WaitGroup
	errs := make(chan error, len(categories))
	for _, category := range categories {
		wg.Add(1)
		go func(category model.Category) {
			defer wg.Done()
			errs <- svc.Withdraw(ctx, "pg-race", []model.Category{category})
		}(category)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	current, err := svc.CurrentStatus(ctx, "pg-race", 0)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.False(t, current.Categories.AnyOptionalGranted())

	count, err := svc.Count(ctx, model.ConsentLogFilter{SessionID: "pg-race"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgres_ListStatisticsAndPrune(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	for i := 0; i < 5; i++ {
		_, err := svc.Save(ctx, model.ConsentPreferences{
			SessionID:  fmt.Sprintf("pg-list-%d", i),
			Region:     "BR",
			Categories: model.Categories{"analytics": i%2 == 0},
		})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx, model.ConsentLogFilter{Region: "BR", PerPage: 2, OrderBy: "session_id", Order: "ASC"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pg-list-0", records[0].SessionID)

	stats, err := svc.RegionStatistics(ctx, model.ConsentLogFilter{Region: "BR"})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalConsents)
	assert.Equal(t, 2, stats.TotalRejections)
	assert.InDelta(t, 60.0, stats.AcceptanceRate, 0.001)

	pruner := newService(service.WithClock(func() time.Time { return time.Now().Add(48 * time.Hour) }))
	deleted, err := pruner.PruneExpired(ctx, 1)
	require.NoError(t, err)
	assert.Positive(t, deleted)
}
