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
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wso2/regional-consent-service/internal/compliance/provider"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	dbProvider "github.com/wso2/regional-consent-service/internal/system/database/provider"
	"github.com/wso2/regional-consent-service/internal/system/log"
	"github.com/wso2/regional-consent-service/internal/system/managers"
)

const (
	configFile      = "/repository/conf/deployment.yaml"
	shutdownTimeout = 15 * time.Second
)

func main() {
	rcsHome := getRCSHome()

	envFiles, err := filepath.Glob(filepath.Join(rcsHome, "config", "*.env"))
	if err == nil && len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	rcsConfig, err := config.LoadConfig(rcsHome, configFile)
	if err != nil {
		log.GetLogger().Fatal("Failed to load configuration", log.String("home", rcsHome), log.Error(err))
	}
	if err := config.InitializeRCSRuntime(rcsHome, rcsConfig); err != nil {
		log.GetLogger().Fatal("Failed to initialize runtime", log.Error(err))
	}
	if err := log.InitWithFormat(rcsConfig.Log.LogLevel, rcsConfig.Log.Format); err != nil {
		log.GetLogger().Fatal("Failed to initialize logger", log.Error(err))
	}
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initDatabase(ctx); err != nil {
		logger.Fatal("Failed to initialize the consent database", log.Error(err))
	}
	defer func() { _ = dbProvider.ClosePool() }()

	provider.Initialize(*rcsConfig)
	defer provider.Shutdown()

	serverAddr := fmt.Sprintf("%s:%d", rcsConfig.Addr.Host, rcsConfig.Addr.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           enableCORS(initMultiplexer(), rcsConfig.Auth.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Regional consent service starting", log.String("address", serverAddr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve requests", log.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down regional consent service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", log.Error(err))
		}
	}
}

// initDatabase opens the shared pool and creates the consent log schema when missing.
func initDatabase(ctx context.Context) error {

	dbClient, err := dbProvider.NewDBProvider().GetDBClient()
	if err != nil {
		return err
	}
	return dbClient.InitDatabase(ctx)
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer() *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux)

	// Register the services.
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services.", log.Error(err))
	}
	return mux
}

// enableCORS allows browser banners on the configured origins to call the visitor endpoints.
func enableCORS(next http.Handler, allowedOrigins []string) http.Handler {

	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; origin != "" && (ok || allowAny) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getRCSHome() string {

	// Parse project directory from command line arguments.
	rcsHomeFlag := flag.String("rcsHome", "", "Path to regional consent service home directory")
	flag.Parse()

	if *rcsHomeFlag != "" {
		return *rcsHomeFlag
	}
	dir, err := os.Getwd()
	if err != nil {
		log.GetLogger().Fatal("Failed to get current working directory", log.Error(err))
	}
	return dir
}
