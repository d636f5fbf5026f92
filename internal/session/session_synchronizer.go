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

package session

import (
	"context"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
)

const (
	syncBackoffInitial    = 1 * time.Second
	syncBackoffMax        = 10 * time.Second
	syncBackoffMaxElapsed = 30 * time.Second
)

// SessionSynchronizerInterface mirrors a Portal session into the Store.
// Every method is best-effort; failure is logged and never propagated.
type SessionSynchronizerInterface interface {
	SyncSession(profile *model.Profile)
	MirrorLogout(storeID int64)
}

// SessionSynchronizer is the default implementation of SessionSynchronizerInterface.
type SessionSynchronizer struct {
	store storeclient.StoreClientInterface
}

// NewSessionSynchronizer creates a synchronizer over the given Store client.
func NewSessionSynchronizer(store storeclient.StoreClientInterface) *SessionSynchronizer {
	return &SessionSynchronizer{store: store}
}

// SyncSession establishes a companion Store session after a successful
// Portal login of a linked account. Fire-and-forget: the caller's login
// has already succeeded and must not wait on this.
func (s *SessionSynchronizer) SyncSession(profile *model.Profile) {

	if profile == nil || profile.Ref.StoreID == 0 {
		return
	}
	if !tokenUsable(profile.AccessToken) {
		log.GetLogger().Debug("Skipping store session sync for expired portal token",
			log.String("portal_id", profile.Ref.PortalID))
		return
	}

	go s.syncWithRetry(profile.Ref.PortalID, profile.Ref.StoreID)
}

func (s *SessionSynchronizer) syncWithRetry(portalID string, storeID int64) {

	logger := log.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), syncBackoffMaxElapsed)
	defer cancel()

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = syncBackoffInitial
	backoffCfg.MaxInterval = syncBackoffMax
	backoffCfg.MaxElapsedTime = syncBackoffMaxElapsed

	operation := func() error {
		return s.store.CreateSession(ctx, storeID)
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoffCfg, ctx)); err != nil {
		logger.Warn("Store session sync failed",
			log.String("portal_id", portalID),
			log.Int64("store_id", storeID),
			log.Error(err))
		return
	}

	logger.Audit(log.AuditEvent{
		InitiatorID:   portalID,
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      portalID,
		TargetType:    log.TargetTypeSession,
		ActionID:      log.ActionSessionSync,
	})
}

// MirrorLogout ends the companion Store session on sign-out. Non-blocking,
// single attempt.
func (s *SessionSynchronizer) MirrorLogout(storeID int64) {

	if storeID == 0 {
		return
	}

	go func() {
		logger := log.GetLogger()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.store.Logout(ctx, storeID); err != nil {
			logger.Warn("Store logout mirror failed",
				log.Int64("store_id", storeID), log.Error(err))
			return
		}
		logger.Audit(log.AuditEvent{
			InitiatorType: log.InitiatorTypeSystem,
			TargetType:    log.TargetTypeSession,
			ActionID:      log.ActionStoreLogout,
		})
	}()
}

// tokenUsable parses the Portal access token without verifying the
// signature (the Portal already did) and rejects expired tokens. A token
// that does not parse is still considered usable; the Store decides.
func tokenUsable(accessToken string) bool {

	if accessToken == "" {
		return true
	}
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}
