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

package config

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

// PortalConfig holds connection settings for the primary account system.
type PortalConfig struct {
	BaseURL        string `yaml:"base_url"`
	ServiceKey     string `yaml:"service_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StoreConfig holds connection settings for the secondary commerce system.
type StoreConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	EnableSync     bool   `yaml:"enable_sync"`
}

// HealthConfig controls the background health monitor.
type HealthConfig struct {
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
	ProbeTimeoutSeconds  int `yaml:"probe_timeout_seconds"`
	HealthyThresholdMs   int `yaml:"healthy_threshold_ms"`
}

// AdminConfig holds the credentials guarding the operator endpoints.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type DataSourceConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type Config struct {
	Addr       AddrConfig       `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	Portal     PortalConfig     `yaml:"portal"`
	Store      StoreConfig      `yaml:"store"`
	Health     HealthConfig     `yaml:"health"`
	Admin      AdminConfig      `yaml:"admin"`
	DataSource DataSourceConfig `yaml:"datasource"`
}
