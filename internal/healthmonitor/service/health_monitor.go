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

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

const (
	defaultCheckInterval = 5 * time.Minute
	// Hard cap on one probe. A probe that exceeds this is a failure.
	defaultProbeTimeout = 10 * time.Second
	// A technically successful but slow probe still counts as unhealthy.
	defaultHealthyThreshold = 5 * time.Second
)

// HealthMonitorInterface is the lifecycle contract of the background prober.
type HealthMonitorInterface interface {
	Initialize(ctx context.Context) *model.HealthSnapshot
	CheckNow(ctx context.Context) bool
	ForceCheck(ctx context.Context) *model.HealthSnapshot
	CachedStatus() *model.HealthSnapshot
	StoreReachable() bool
	Stop()
}

// ticker abstracts time.Ticker so tests can drive checks with a fake clock.
type ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) Chan() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()                  { r.t.Stop() }

// HealthMonitor probes Store reachability on a timer and caches the result.
// The snapshot is replaced wholesale on every update so readers never see
// a half-written status.
type HealthMonitor struct {
	store            storeclient.StoreClientInterface
	storeEnabled     bool
	checkInterval    time.Duration
	probeTimeout     time.Duration
	healthyThreshold time.Duration

	snapshot atomic.Pointer[model.HealthSnapshot]
	checking atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool

	now       func() time.Time
	newTicker func(time.Duration) ticker
}

// NewHealthMonitor creates a monitor over the given Store client.
func NewHealthMonitor(store storeclient.StoreClientInterface, cfg config.Config) *HealthMonitor {

	interval := time.Duration(cfg.Health.CheckIntervalSeconds) * time.Second
	if interval == 0 {
		interval = defaultCheckInterval
	}
	probeTimeout := time.Duration(cfg.Health.ProbeTimeoutSeconds) * time.Second
	if probeTimeout == 0 {
		probeTimeout = defaultProbeTimeout
	}
	threshold := time.Duration(cfg.Health.HealthyThresholdMs) * time.Millisecond
	if threshold == 0 {
		threshold = defaultHealthyThreshold
	}

	return &HealthMonitor{
		store:            store,
		storeEnabled:     cfg.Store.EnableSync,
		checkInterval:    interval,
		probeTimeout:     probeTimeout,
		healthyThreshold: threshold,
		now:              time.Now,
		newTicker: func(d time.Duration) ticker {
			return &realTicker{t: time.NewTicker(d)}
		},
	}
}

// Initialize performs one check, records the snapshot and starts the
// background timer. When Store integration is disabled it records a fixed
// skipped snapshot and never starts the timer. Repeated calls while
// running only return the cached snapshot.
func (m *HealthMonitor) Initialize(ctx context.Context) *model.HealthSnapshot {

	if !m.storeEnabled {
		snapshot := m.skippedSnapshot()
		m.snapshot.Store(snapshot)
		log.GetLogger().Info("Store integration disabled, health monitor not started")
		return snapshot
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return m.CachedStatus()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	snapshot := m.runCheck(ctx)

	go m.loop(runCtx)

	return snapshot
}

// Stop cancels the background timer. Safe to call repeatedly and safe to
// call when not running.
func (m *HealthMonitor) Stop() {

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.running = false
}

// CheckNow performs one probe and reports whether the Store is healthy.
func (m *HealthMonitor) CheckNow(ctx context.Context) bool {

	snapshot := m.runCheck(ctx)
	return snapshot.Store.Available
}

// ForceCheck runs a probe immediately, bypassing the timer, and updates
// the cache.
func (m *HealthMonitor) ForceCheck(ctx context.Context) *model.HealthSnapshot {

	if !m.storeEnabled {
		snapshot := m.skippedSnapshot()
		m.snapshot.Store(snapshot)
		return snapshot
	}
	return m.runCheck(ctx)
}

// CachedStatus is a non-blocking read of the last snapshot. Nil before the
// first check.
func (m *HealthMonitor) CachedStatus() *model.HealthSnapshot {

	return m.snapshot.Load()
}

// StoreReachable is the fast reachability hint used by the executor to
// short-circuit Store calls. An unchecked Store is assumed reachable.
func (m *HealthMonitor) StoreReachable() bool {

	snapshot := m.snapshot.Load()
	if snapshot == nil {
		return true
	}
	if snapshot.Store.Skipped {
		return false
	}
	return snapshot.Store.Available
}

func (m *HealthMonitor) loop(ctx context.Context) {

	t := m.newTicker(m.checkInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			// A check still in flight means this tick is skipped, not queued.
			if !m.checking.CompareAndSwap(false, true) {
				continue
			}
			m.runCheckLocked(ctx)
			m.checking.Store(false)
		}
	}
}

func (m *HealthMonitor) runCheck(ctx context.Context) *model.HealthSnapshot {

	if m.checking.CompareAndSwap(false, true) {
		defer m.checking.Store(false)
		return m.runCheckLocked(ctx)
	}
	// Overlapping with the background tick; serve the cache.
	if cached := m.snapshot.Load(); cached != nil {
		return cached
	}
	return m.runCheckLocked(ctx)
}

func (m *HealthMonitor) runCheckLocked(ctx context.Context) *model.HealthSnapshot {

	logger := log.GetLogger()

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	result, elapsed, err := m.store.Liveness(probeCtx)
	checkedAt := m.now().UTC().Format(time.RFC3339)

	storeHealth := model.StoreHealth{
		ResponseTimeMs: elapsed.Milliseconds(),
		LastCheckedAt:  checkedAt,
	}

	switch {
	case err != nil:
		storeHealth.Error = err.Error()
		logger.Warn("Store health probe failed", log.Error(err))
	case !result.Success:
		storeHealth.Error = result.Message
		logger.Warn("Store health probe rejected", log.String("message", result.Message))
	case elapsed > m.healthyThreshold:
		storeHealth.Error = "store responded too slowly"
		logger.Warn("Store health probe slow",
			log.Int64("response_time_ms", elapsed.Milliseconds()))
	default:
		storeHealth.Available = true
	}

	snapshot := &model.HealthSnapshot{
		Status: deriveStatus(storeHealth),
		Store:  storeHealth,
		Portal: model.PortalHealth{Available: true},
	}
	m.snapshot.Store(snapshot)
	return snapshot
}

func (m *HealthMonitor) skippedSnapshot() *model.HealthSnapshot {

	return &model.HealthSnapshot{
		Status: model.StatusHealthy,
		Store: model.StoreHealth{
			Available:     false,
			Skipped:       true,
			LastCheckedAt: m.now().UTC().Format(time.RFC3339),
			Error:         "store integration disabled",
		},
		Portal: model.PortalHealth{Available: true},
	}
}

// deriveStatus assumes the Portal is available. Down is unreachable from
// here; the asymmetry is inherited and documented rather than fixed.
func deriveStatus(store model.StoreHealth) string {

	if store.Skipped || store.Available {
		return model.StatusHealthy
	}
	return model.StatusDegraded
}
