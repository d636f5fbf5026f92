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
	"errors"

	compservice "github.com/bda-portal/identity-reconciliation-service/internal/compensation/service"
	healthprovider "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/provider"
	healthservice "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/service"
	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/session"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	syscontext "github.com/bda-portal/identity-reconciliation-service/internal/system/context"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

// ReconciliationServiceInterface is the engine's front door. Every
// operation returns a ReconciliationOutcome; raw internal errors never
// cross this boundary.
type ReconciliationServiceInterface interface {
	Signup(ctx context.Context, req model.SignupRequest) *model.ReconciliationOutcome
	Login(ctx context.Context, req model.LoginRequest) *model.ReconciliationOutcome
	Logout(ctx context.Context, req model.LogoutRequest) error
}

// ReconciliationService is the default implementation of ReconciliationServiceInterface.
type ReconciliationService struct {
	portal       portalclient.PortalClientInterface
	store        storeclient.StoreClientInterface
	prober       AccountProberInterface
	verifier     CredentialVerifierInterface
	executor     StrategyExecutorInterface
	sessions     session.SessionSynchronizerInterface
	health       healthservice.HealthMonitorInterface
	storeEnabled bool
}

// GetReconciliationService wires a concrete service from the runtime
// configuration.
func GetReconciliationService() ReconciliationServiceInterface {

	cfg := config.GetIRSRuntime().Config
	portal := portalclient.NewPortalClient(cfg.Portal)
	store := storeclient.NewStoreClient(cfg.Store)
	verifier := NewCredentialVerifier(portal, store)
	health := healthprovider.NewHealthMonitorProvider().GetHealthMonitor()
	compensation := compservice.GetCompensationService()

	return &ReconciliationService{
		portal:       portal,
		store:        store,
		prober:       NewAccountProber(portal, store, cfg.Store.EnableSync),
		verifier:     verifier,
		executor:     NewStrategyExecutor(portal, store, verifier, health, compensation, cfg.Store.EnableSync),
		sessions:     session.NewSessionSynchronizer(store),
		health:       health,
		storeEnabled: cfg.Store.EnableSync,
	}
}

// Signup runs the full decide-and-execute reconciliation for a signup
// form: probe both systems, select exactly one strategy, execute it.
func (s *ReconciliationService) Signup(ctx context.Context, req model.SignupRequest) *model.ReconciliationOutcome {

	traceID := syscontext.GetOrGenerateTraceID(ctx)
	logger := log.GetLogger()

	if req.AccessMode == "" {
		req.AccessMode = model.AccessModeBoth
	}

	logger.Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      log.ActionReconcileProbe,
		TraceID:       traceID,
	})

	status := s.prober.Probe(ctx, req.Email)
	strategy := SelectStrategy(status, req.AccessMode)

	logger.Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      log.ActionStrategySelected,
		TraceID:       traceID,
		Data:          map[string]string{"strategy": strategy.String()},
	})

	outcome := s.executor.Execute(ctx, strategy, req, status, traceID)

	logger.Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      log.ActionReconcileComplete,
		TraceID:       traceID,
		Data: map[string]interface{}{
			"strategy": strategy.String(),
			"success":  outcome.Success,
			"action":   outcome.Action,
		},
	})
	return outcome
}

// Login is the transparent flow: Portal first; when the Portal rejects
// the credentials but a matching Store account verifies, the Store user
// is silently migrated to the Portal and linked. The caller never learns
// which system rejected a credential.
func (s *ReconciliationService) Login(ctx context.Context, req model.LoginRequest) *model.ReconciliationOutcome {

	traceID := syscontext.GetOrGenerateTraceID(ctx)
	logger := log.GetLogger()

	profile, err := s.portal.SignIn(ctx, req.Email, req.Password)
	if err == nil {
		return s.loginSucceeded(profile, traceID)
	}

	if !errors.Is(err, portalclient.ErrInvalidLogin) && !errors.Is(err, portalclient.ErrUserNotFound) {
		logger.Error("Portal login failed with a non-credential error",
			log.Error(err), log.String("trace_id", traceID))
		return failureOutcome("The service is temporarily unavailable. Please try again later.")
	}

	// Portal said no. A Store-only user may still be legitimate; probe
	// quietly. Any uncertainty collapses to the same invalid-credentials
	// answer so accounts cannot be enumerated.
	if !s.storeEnabled {
		return s.invalidLogin(req.Email, traceID)
	}

	storeSnapshot, checkErr := s.store.CheckUser(ctx, req.Email)
	if checkErr != nil || !storeSnapshot.Exists {
		return s.invalidLogin(req.Email, traceID)
	}

	storeProfile, verifyErr := s.verifier.Verify(ctx, constants.SystemStore, req.Email, req.Password)
	if verifyErr != nil {
		if errors.Is(verifyErr, ErrInvalidCredentials) {
			return s.invalidLogin(req.Email, traceID)
		}
		logger.Error("Store credential verification failed during login",
			log.Error(verifyErr), log.String("trace_id", traceID))
		return failureOutcome("The service is temporarily unavailable. Please try again later.")
	}

	return s.migrateStoreUser(ctx, req, storeProfile, traceID)
}

// Logout terminates the Portal session and mirrors the sign-out to the
// Store for linked users. The Store side is non-blocking.
func (s *ReconciliationService) Logout(ctx context.Context, req model.LogoutRequest) error {

	if req.StoreID != 0 {
		s.sessions.MirrorLogout(req.StoreID)
	}
	return s.portal.SignOut(ctx, req.PortalID)
}

// loginSucceeded finishes a Portal login: audit, fire-and-forget session
// mirroring for linked accounts, degraded note when the Store is down.
func (s *ReconciliationService) loginSucceeded(profile *model.Profile, traceID string) *model.ReconciliationOutcome {

	logger := log.GetLogger()
	logger.Audit(log.AuditEvent{
		InitiatorID:   profile.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      profile.Ref.PortalID,
		TargetType:    log.TargetTypePortalAccount,
		ActionID:      log.ActionAuthenticationSuccess,
		TraceID:       traceID,
	})

	message := "Welcome back."
	if profile.Ref.Linked() {
		if s.storeEnabled && s.health.StoreReachable() {
			s.sessions.SyncSession(profile)
		} else {
			message = "Welcome back. " + pendingSyncNote
		}
	}

	return &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionConfirmedExisting,
		PortalAccount: snapshotFromProfile(profile),
		NextStep:      model.NextStepLogin,
		Message:       message,
		TraceID:       traceID,
	}
}

// migrateStoreUser creates the missing Portal side for a verified
// Store-only user and links the two, reusing the executor's creation and
// recovery logic.
func (s *ReconciliationService) migrateStoreUser(ctx context.Context, req model.LoginRequest,
	storeProfile *model.Profile, traceID string) *model.ReconciliationOutcome {

	signupReq := model.SignupRequest{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  storeProfile.FirstName,
		LastName:   storeProfile.LastName,
		AccessMode: model.AccessModeBoth,
	}
	status := model.AccountStatus{
		PortalKnown: true,
		StoreKnown:  true,
		StoreExists: true,
		Store:       snapshotFromProfile(storeProfile),
	}

	outcome := s.executor.Execute(ctx, model.StrategyCreatePortalLinkStore, signupReq, status, traceID)
	if outcome.Success && outcome.PortalAccount != nil {
		s.sessions.SyncSession(&model.Profile{
			Ref: model.IdentityRef{
				PortalID: outcome.PortalAccount.Ref.PortalID,
				StoreID:  storeProfile.Ref.StoreID,
			},
			Email: req.Email,
		})
		outcome.Message = "Welcome back."
	}
	return outcome
}

func (s *ReconciliationService) invalidLogin(email, traceID string) *model.ReconciliationOutcome {

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      log.ActionAuthenticationFailure,
		TraceID:       traceID,
	})
	return &model.ReconciliationOutcome{
		Success: false,
		Message: "Invalid email or password.",
		TraceID: traceID,
	}
}
