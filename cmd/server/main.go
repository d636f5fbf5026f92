/*
 * Copyright (c) 2025-2026, BDA Portal.
 *
 * BDA Portal licenses this file to you under the Apache License,
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
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	healthprovider "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/provider"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/managers"
)

const configFile = "repository/conf/deployment.yaml"

func main() {
	irsHome := getIRSHome()

	envFiles, _ := filepath.Glob("config/*.env")
	_ = godotenv.Load(envFiles...)

	// Load the configuration file.
	irsConfig, err := config.LoadConfig(irsHome, configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	// Initialize runtime configurations.
	if err := config.InitializeIRSRuntime(irsHome, irsConfig); err != nil {
		stdlog.Fatalf("Failed to initialize runtime: %v", err)
	}

	// Initialize logger.
	if err := log.Init(irsConfig.Log.LogLevel); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := log.GetLogger()

	// Start the background store health monitor.
	monitor := healthprovider.NewHealthMonitorProvider().GetHealthMonitor()
	snapshot := monitor.Initialize(context.Background())
	logger.Info("Health monitor initialized", log.String("status", snapshot.Status))
	defer monitor.Stop()

	serverAddr := fmt.Sprintf("%s:%d", irsConfig.Addr.Host, irsConfig.Addr.Port)
	mux := enableCORS(initMultiplexer())

	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Fatal("Failed to start listener", log.Error(err))
	}
	logger.Info("Identity reconciliation service started", log.String("addr", serverAddr))

	server := &http.Server{Handler: mux}
	if err := server.Serve(ln); err != nil {
		logger.Error("Failed to serve requests", log.Error(err))
	}
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer() *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux)

	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Fatal("Failed to register the services", log.Error(err))
	}

	return mux
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getIRSHome() string {

	projectHome := ""
	projectHomeFlag := flag.String("irsHome", "", "Path to the service home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		projectHome = *projectHomeFlag
	} else {
		dir, dirErr := os.Getwd()
		if dirErr != nil {
			stdlog.Fatalf("Failed to get current working directory: %v", dirErr)
		}
		projectHome = dir
	}

	return projectHome
}
