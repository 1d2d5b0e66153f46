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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wso2/regional-consent-service/internal/archive"
	"github.com/wso2/regional-consent-service/internal/consent/model"
	consentProvider "github.com/wso2/regional-consent-service/internal/consent/provider"
	"github.com/wso2/regional-consent-service/internal/system/config"
	dbProvider "github.com/wso2/regional-consent-service/internal/system/database/provider"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

const configFile = "/repository/conf/deployment.yaml"

// retention archives and deletes consent records older than the retention period.
func main() {
	rcsHome := flag.String("rcsHome", "", "Path to regional consent service home directory")
	days := flag.Int("days", 0, "Retention period in days, overriding consent.retention_days")
	flag.Parse()

	home := *rcsHome
	if home == "" {
		dir, err := os.Getwd()
		if err != nil {
			log.GetLogger().Fatal("Failed to get current working directory", log.Error(err))
		}
		home = dir
	}
	if envFiles, err := filepath.Glob(filepath.Join(home, "config", "*.env")); err == nil && len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	rcsConfig, err := config.LoadConfig(home, configFile)
	if err != nil {
		log.GetLogger().Fatal("Failed to load configuration", log.Error(err))
	}
	if err := config.InitializeRCSRuntime(home, rcsConfig); err != nil {
		log.GetLogger().Fatal("Failed to initialize runtime", log.Error(err))
	}
	if err := log.InitWithFormat(rcsConfig.Log.LogLevel, rcsConfig.Log.Format); err != nil {
		log.GetLogger().Fatal("Failed to initialize logger", log.Error(err))
	}
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = dbProvider.ClosePool() }()

	retentionDays := rcsConfig.Consent.RetentionDays
	if *days > 0 {
		retentionDays = *days
	}

	var beforeDelete func(context.Context, []model.ConsentRecord) error
	if rcsConfig.Archive.Enabled {
		archiver, err := archive.NewS3ArchiverFromConfig(ctx, rcsConfig.Archive)
		if err != nil {
			logger.Fatal("Failed to create consent archiver", log.Error(err))
		}
		beforeDelete = func(ctx context.Context, records []model.ConsentRecord) error {
			key, err := archiver.Archive(ctx, records)
			if err == nil {
				logger.Info("Archived expired consent records", log.String("key", key), log.Int("records", len(records)))
			}
			return err
		}
	}

	service := consentProvider.NewConsentLogProvider().GetConsentLogService()
	deleted, err := service.Prune(ctx, retentionDays, beforeDelete)
	if err != nil {
		logger.Fatal("Consent retention run failed", log.Int("retention_days", retentionDays),
			log.Int64("deleted", deleted), log.Error(err))
	}
	logger.Info("Consent retention run completed", log.Int("retention_days", retentionDays),
		log.Int64("deleted", deleted))
}
