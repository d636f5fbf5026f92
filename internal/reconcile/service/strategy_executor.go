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
	"fmt"
	"strings"
	"sync"

	compservice "github.com/bda-portal/identity-reconciliation-service/internal/compensation/service"
	healthservice "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/service"
	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

const pendingSyncNote = "Store synchronization is pending and will be completed later."

// StrategyExecutorInterface runs one chosen strategy to completion and
// converts every internal error into a ReconciliationOutcome. No raw
// error ever leaves this layer.
type StrategyExecutorInterface interface {
	Execute(ctx context.Context, strategy model.Strategy, req model.SignupRequest,
		status model.AccountStatus, traceID string) *model.ReconciliationOutcome
}

// StrategyExecutor is the default implementation of StrategyExecutorInterface.
type StrategyExecutor struct {
	portal       portalclient.PortalClientInterface
	store        storeclient.StoreClientInterface
	verifier     CredentialVerifierInterface
	health       healthservice.HealthMonitorInterface
	compensation compservice.CompensationServiceInterface
	storeEnabled bool
}

// NewStrategyExecutor wires an executor over the collaborating services.
func NewStrategyExecutor(
	portal portalclient.PortalClientInterface,
	store storeclient.StoreClientInterface,
	verifier CredentialVerifierInterface,
	health healthservice.HealthMonitorInterface,
	compensation compservice.CompensationServiceInterface,
	storeEnabled bool,
) *StrategyExecutor {
	return &StrategyExecutor{
		portal:       portal,
		store:        store,
		verifier:     verifier,
		health:       health,
		compensation: compensation,
		storeEnabled: storeEnabled,
	}
}

// Execute dispatches on the strategy. The switch is exhaustive over the
// enum; adding a strategy without a handler is a compile-visible gap, not
// a silent default.
func (e *StrategyExecutor) Execute(ctx context.Context, strategy model.Strategy,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      log.ActionReconcileExecute,
		TraceID:       traceID,
		Data:          map[string]string{"strategy": strategy.String()},
	})

	var outcome *model.ReconciliationOutcome
	switch strategy {
	case model.StrategyCreateBoth:
		outcome = e.executeCreateBoth(ctx, req, traceID)
	case model.StrategyCreateStoreLinkPortal:
		outcome = e.executeCreateStoreLinkPortal(ctx, req, status, traceID)
	case model.StrategyCreatePortalLinkStore:
		outcome = e.executeCreatePortalLinkStore(ctx, req, status, traceID)
	case model.StrategyConfirmExistingPortal:
		outcome = confirmExisting(status.Portal, nil)
	case model.StrategyConfirmExistingStore:
		outcome = confirmExisting(nil, status.Store)
	case model.StrategyConfirmExistingLinked:
		outcome = confirmExisting(status.Portal, status.Store)
	case model.StrategyLinkExisting:
		outcome = e.executeLinkExisting(ctx, req, status, traceID)
	case model.StrategyResolveConflictsAndLink:
		outcome = e.executeResolveConflictsAndLink(ctx, req, status, traceID)
	case model.StrategyManualReview:
		outcome = e.executeManualReview(req, status, traceID)
	default:
		outcome = e.executeManualReview(req, status, traceID)
	}

	outcome.Strategy = strategy.String()
	outcome.TraceID = traceID
	return outcome
}

// executeCreateBoth creates accounts on the requested sides. Both sides
// are freshly created by the same request, so no credential verification
// is needed.
func (e *StrategyExecutor) executeCreateBoth(ctx context.Context, req model.SignupRequest, traceID string) *model.ReconciliationOutcome {

	if req.AccessMode == model.AccessModeStoreOnly {
		storeUser, err := e.createStoreAccount(ctx, req, traceID)
		if err != nil {
			return e.storeFailureOutcome(err, nil, req, traceID)
		}
		return &model.ReconciliationOutcome{
			Success:      true,
			Action:       model.ActionCreated,
			StoreAccount: snapshotFromStore(storeUser),
			NextStep:     model.NextStepLogin,
			Message:      "Your account has been created.",
		}
	}

	portalProfile, requiresConfirmation, err := e.createPortalAccount(ctx, req, traceID)
	if err != nil {
		return failureOutcome("We could not create your account. Please try again.")
	}
	if requiresConfirmation {
		return confirmationOutcome(req.Email)
	}

	outcome := &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionCreated,
		PortalAccount: snapshotFromProfile(portalProfile),
		NextStep:      model.NextStepLogin,
		Message:       "Your account has been created.",
	}

	if req.AccessMode == model.AccessModePortalOnly {
		return outcome
	}

	storeUser, err := e.createStoreAccount(ctx, req, traceID)
	if err != nil {
		if errors.Is(err, storeclient.ErrDuplicateEmail) {
			// Business error on the secondary side is fatal. The Portal
			// account just created cannot always be deleted from here;
			// record the compensating action instead of pretending.
			return e.storeFailureOutcome(err, portalProfile, req, traceID)
		}
		// Infrastructure failure: degrade and continue.
		outcome.Message = "Your account has been created. " + pendingSyncNote
		return outcome
	}

	outcome.StoreAccount = snapshotFromStore(storeUser)
	if err := e.linkAccounts(ctx, portalProfile.Ref.PortalID, storeUser.ID, req.Email, traceID); err != nil {
		outcome.Message = "Your account has been created. " + pendingSyncNote
	}
	return outcome
}

// executeCreateStoreLinkPortal handles an existing Portal account with no
// Store side: verify the requester owns the Portal account, create the
// Store account, then link.
func (e *StrategyExecutor) executeCreateStoreLinkPortal(ctx context.Context,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	portalProfile, err := e.verifier.Verify(ctx, constants.SystemPortal, req.Email, req.Password)
	if err != nil {
		return e.credentialFailureOutcome(err, req.Email, traceID)
	}

	storeUser, err := e.createStoreAccount(ctx, req, traceID)
	if err != nil {
		if errors.Is(err, storeclient.ErrDuplicateEmail) {
			return e.storeFailureOutcome(err, portalProfile, req, traceID)
		}
		return &model.ReconciliationOutcome{
			Success:       true,
			Action:        model.ActionConfirmedExisting,
			PortalAccount: snapshotFromProfile(portalProfile),
			NextStep:      model.NextStepLogin,
			Message:       "Welcome back. " + pendingSyncNote,
		}
	}

	outcome := &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionCreated,
		PortalAccount: snapshotFromProfile(portalProfile),
		StoreAccount:  snapshotFromStore(storeUser),
		NextStep:      model.NextStepLogin,
		Message:       "Your store access has been set up.",
	}
	if err := e.linkAccounts(ctx, portalProfile.Ref.PortalID, storeUser.ID, req.Email, traceID); err != nil {
		outcome.Message = "Your store access has been set up. " + pendingSyncNote
	}
	return outcome
}

// executeCreatePortalLinkStore handles an existing Store account with no
// Portal side: verify the Store credentials, create the Portal account
// (with the recovery ladder), then link to the existing Store account.
func (e *StrategyExecutor) executeCreatePortalLinkStore(ctx context.Context,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	storeProfile, err := e.verifier.Verify(ctx, constants.SystemStore, req.Email, req.Password)
	if err != nil {
		return e.credentialFailureOutcome(err, req.Email, traceID)
	}

	portalProfile, requiresConfirmation, err := e.createPortalAccount(ctx, req, traceID)
	if err != nil {
		return failureOutcome("We could not create your account. Please try again.")
	}
	if requiresConfirmation {
		return confirmationOutcome(req.Email)
	}

	outcome := &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionCreated,
		PortalAccount: snapshotFromProfile(portalProfile),
		StoreAccount:  snapshotFromProfile(storeProfile),
		NextStep:      model.NextStepLogin,
		Message:       "Your account has been set up.",
	}
	if err := e.linkAccounts(ctx, portalProfile.Ref.PortalID, storeProfile.Ref.StoreID, req.Email, traceID); err != nil {
		outcome.Message = "Your account has been set up. " + pendingSyncNote
	}
	return outcome
}

// executeLinkExisting links two pre-existing unlinked accounts. Linking
// never happens before both credential checks succeed.
func (e *StrategyExecutor) executeLinkExisting(ctx context.Context,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	portalProfile, storeProfile, err := e.verifyBoth(ctx, req.Email, req.Password)
	if err != nil {
		return e.credentialFailureOutcome(err, req.Email, traceID)
	}

	if err := e.linkAccounts(ctx, portalProfile.Ref.PortalID, storeProfile.Ref.StoreID, req.Email, traceID); err != nil {
		return failureOutcome("We could not link your accounts. Please try again.")
	}

	outcome := &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionLinked,
		PortalAccount: snapshotFromProfile(portalProfile),
		StoreAccount:  snapshotFromProfile(storeProfile),
		NextStep:      model.NextStepLogin,
		Message:       "Your accounts have been linked.",
	}

	if err := e.syncStoreProfile(ctx, storeProfile.Ref.StoreID, req); err != nil {
		outcome.Message = "Your accounts have been linked. " + pendingSyncNote
	}
	return outcome
}

// executeResolveConflictsAndLink treats the submitted form as the source
// of truth for conflicting fields: push to Portal (blocking), push to
// Store (non-blocking), then link — only after both credential checks pass.
func (e *StrategyExecutor) executeResolveConflictsAndLink(ctx context.Context,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	portalProfile, storeProfile, err := e.verifyBoth(ctx, req.Email, req.Password)
	if err != nil {
		return e.credentialFailureOutcome(err, req.Email, traceID)
	}

	updatedFields := []string{"name"}
	updates := portalclient.ProfileUpdates{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Role != "" {
		updates.Role = req.Role
		updatedFields = append(updatedFields, "role")
	}
	if req.Organization != "" {
		updates.Organization = req.Organization
		updatedFields = append(updatedFields, "organization")
	}

	if err := e.portal.UpdateUserProfile(ctx, portalProfile.Ref.PortalID, updates); err != nil {
		log.GetLogger().Error("Portal profile update failed during conflict resolution",
			log.Error(err), log.String("trace_id", traceID))
		return failureOutcome("We could not update your profile. Please try again.")
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      portalProfile.Ref.PortalID,
		TargetType:    log.TargetTypePortalAccount,
		ActionID:      log.ActionResolveConflicts,
		TraceID:       traceID,
		Data:          map[string]interface{}{"updated_fields": updatedFields},
	})

	storeSynced := e.syncStoreProfile(ctx, storeProfile.Ref.StoreID, req) == nil

	if err := e.linkAccounts(ctx, portalProfile.Ref.PortalID, storeProfile.Ref.StoreID, req.Email, traceID); err != nil {
		return failureOutcome("We could not link your accounts. Please try again.")
	}

	message := fmt.Sprintf("Your accounts have been linked and your %s updated.",
		strings.Join(updatedFields, ", "))
	if !storeSynced {
		message += " " + pendingSyncNote
	}

	return &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionLinked,
		PortalAccount: snapshotFromProfile(portalProfile),
		StoreAccount:  snapshotFromProfile(storeProfile),
		Conflicts:     status.Conflicts,
		NextStep:      model.NextStepLogin,
		Message:       message,
	}
}

// executeManualReview is the fail-closed terminal: no mutation, a pending
// record for operators, a generic message for the user.
func (e *StrategyExecutor) executeManualReview(req model.SignupRequest,
	status model.AccountStatus, traceID string) *model.ReconciliationOutcome {

	_, _ = e.compensation.RecordManualReview(compservice.PendingAction{
		TraceID:  traceID,
		Email:    req.Email,
		Strategy: model.StrategyManualReview.String(),
		Detail: fmt.Sprintf("probe state: portal known=%t exists=%t, store known=%t exists=%t",
			status.PortalKnown, status.PortalExists, status.StoreKnown, status.StoreExists),
	})

	return &model.ReconciliationOutcome{
		Success:  false,
		NextStep: model.NextStepCompleteSetup,
		Message:  "We could not set up your account automatically. Our team has been notified and will contact you.",
	}
}

// createPortalAccount creates the Portal account, climbing the recovery
// ladder when the Portal reports a generic database error: (1) sign in
// with the same credentials, (2) idempotent upsert by email, (3) trigger a
// password-reset email and hand the flow back to the user.
func (e *StrategyExecutor) createPortalAccount(ctx context.Context,
	req model.SignupRequest, traceID string) (*model.Profile, bool, error) {

	logger := log.GetLogger()
	params := portalclient.SignUpParams{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Organization: req.Organization,
	}

	profile, err := e.portal.SignUp(ctx, params)
	if err == nil {
		e.auditAccountCreated(req.Email, profile.Ref.PortalID, traceID)
		return profile, false, nil
	}
	if !errors.Is(err, portalclient.ErrDatabaseError) && !errors.Is(err, portalclient.ErrEmailExists) {
		logger.Error("Portal account creation failed", log.Error(err), log.String("trace_id", traceID))
		return nil, false, err
	}

	logger.Warn("Portal account creation hit recoverable error, attempting sign-in",
		log.Error(err), log.String("trace_id", traceID))
	if profile, signInErr := e.portal.SignIn(ctx, req.Email, req.Password); signInErr == nil {
		return profile, false, nil
	}

	if errors.Is(err, portalclient.ErrDatabaseError) {
		logger.Warn("Sign-in recovery failed, attempting upsert", log.String("trace_id", traceID))
		if profile, upsertErr := e.portal.UpsertUserAccount(ctx, params); upsertErr == nil {
			e.auditAccountCreated(req.Email, profile.Ref.PortalID, traceID)
			return profile, false, nil
		}
	}

	logger.Warn("Upsert recovery failed, sending password reset", log.String("trace_id", traceID))
	if resetErr := e.portal.ResetPasswordForEmail(ctx, req.Email); resetErr != nil {
		logger.Error("Password reset fallback failed", log.Error(resetErr), log.String("trace_id", traceID))
		return nil, false, err
	}
	return nil, true, nil
}

// createStoreAccount creates the Store account, short-circuiting to an
// unavailability error when the cached health status says the Store is
// unreachable or integration is off.
func (e *StrategyExecutor) createStoreAccount(ctx context.Context,
	req model.SignupRequest, traceID string) (*storeclient.StoreUser, error) {

	if !e.storeEnabled || !e.health.StoreReachable() {
		return nil, storeclient.ErrUnavailable
	}

	storeUser, err := e.store.CreateUser(ctx, storeclient.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   req.Email,
		InitiatorType: log.InitiatorTypeUser,
		TargetType:    log.TargetTypeStoreAccount,
		ActionID:      log.ActionCreateStoreAccount,
		TraceID:       traceID,
	})
	return storeUser, nil
}

// linkAccounts records the durable cross-reference on the Portal side.
func (e *StrategyExecutor) linkAccounts(ctx context.Context, portalID string, storeID int64, email, traceID string) error {

	if err := e.portal.LinkStoreAccount(ctx, portalID, storeID); err != nil {
		log.GetLogger().Warn("Account linking failed",
			log.Error(err), log.String("portal_id", portalID), log.Int64("store_id", storeID))
		return err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   email,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      portalID,
		TargetType:    log.TargetTypePortalAccount,
		ActionID:      log.ActionLinkAccounts,
		TraceID:       traceID,
		Data:          map[string]int64{"store_id": storeID},
	})
	return nil
}

// syncStoreProfile pushes profile data to the Store. Best-effort; the
// Store applies it with upsert semantics so repeats are safe.
func (e *StrategyExecutor) syncStoreProfile(ctx context.Context, storeID int64, req model.SignupRequest) error {

	if !e.storeEnabled || !e.health.StoreReachable() {
		return storeclient.ErrUnavailable
	}
	err := e.store.SyncProfile(ctx, storeID, storeclient.ProfileData{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Organization: req.Organization,
	})
	if err != nil {
		log.GetLogger().Warn("Store profile sync failed", log.Error(err), log.Int64("store_id", storeID))
	}
	return err
}

// verifyBoth runs both credential checks concurrently. Both must succeed
// before any linking happens.
func (e *StrategyExecutor) verifyBoth(ctx context.Context, email, password string) (*model.Profile, *model.Profile, error) {

	var wg sync.WaitGroup
	var portalProfile, storeProfile *model.Profile
	var portalErr, storeErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		portalProfile, portalErr = e.verifier.Verify(ctx, constants.SystemPortal, email, password)
	}()
	go func() {
		defer wg.Done()
		storeProfile, storeErr = e.verifier.Verify(ctx, constants.SystemStore, email, password)
	}()
	wg.Wait()

	if portalErr != nil {
		return nil, nil, portalErr
	}
	if storeErr != nil {
		return nil, nil, storeErr
	}
	return portalProfile, storeProfile, nil
}

// storeFailureOutcome handles a fatal business error on the Store side.
// Any Portal account created moments before is rolled back best-effort:
// the Portal offers no client-side account deletion, so the rollback is a
// compensation record for manual cleanup, never a silent ignore.
func (e *StrategyExecutor) storeFailureOutcome(cause error, portalProfile *model.Profile,
	req model.SignupRequest, traceID string) *model.ReconciliationOutcome {

	if errors.Is(cause, storeclient.ErrDuplicateEmail) {
		action := compservice.PendingAction{
			TraceID:  traceID,
			Email:    req.Email,
			Strategy: model.StrategyCreateBoth.String(),
			Detail:   "store account creation failed with a business error: " + cause.Error(),
		}
		if portalProfile != nil {
			action.PortalID = portalProfile.Ref.PortalID
			action.Detail = "portal account created but store creation failed; portal side needs manual cleanup: " + cause.Error()
		}
		_, _ = e.compensation.RecordRollbackPending(action)

		return failureOutcome("An account with this email already exists in our store. Please log in instead.")
	}

	return failureOutcome("We could not create your store account. Please try again.")
}

// credentialFailureOutcome collapses every verification failure into the
// same externally visible result. Infrastructure failures degrade into a
// service-unavailable message instead.
func (e *StrategyExecutor) credentialFailureOutcome(err error, email, traceID string) *model.ReconciliationOutcome {

	logger := log.GetLogger()
	if errors.Is(err, ErrInvalidCredentials) {
		logger.Audit(log.AuditEvent{
			InitiatorID:   email,
			InitiatorType: log.InitiatorTypeUser,
			TargetType:    log.TargetTypeReconciliation,
			ActionID:      log.ActionAuthenticationFailure,
			TraceID:       traceID,
		})
		return failureOutcome("Invalid email or password.")
	}

	logger.Error("Credential verification hit an infrastructure error",
		log.Error(err), log.String("trace_id", traceID))
	return failureOutcome("The service is temporarily unavailable. Please try again later.")
}

func (e *StrategyExecutor) auditAccountCreated(email, portalID, traceID string) {
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   email,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      portalID,
		TargetType:    log.TargetTypePortalAccount,
		ActionID:      log.ActionCreatePortalAccount,
		TraceID:       traceID,
	})
}

func confirmExisting(portal, store *model.AccountSnapshot) *model.ReconciliationOutcome {
	return &model.ReconciliationOutcome{
		Success:       true,
		Action:        model.ActionConfirmedExisting,
		PortalAccount: portal,
		StoreAccount:  store,
		NextStep:      model.NextStepLogin,
		Message:       "An account with this email already exists. Please log in.",
	}
}

func confirmationOutcome(email string) *model.ReconciliationOutcome {
	return &model.ReconciliationOutcome{
		Success:  true,
		Action:   model.ActionRequiresConfirmation,
		NextStep: model.NextStepConfirmData,
		Message:  "We sent a confirmation email to " + email + ". Please follow the link to finish setting up your account.",
	}
}

func failureOutcome(message string) *model.ReconciliationOutcome {
	return &model.ReconciliationOutcome{
		Success: false,
		Message: message,
	}
}

func snapshotFromProfile(profile *model.Profile) *model.AccountSnapshot {
	if profile == nil {
		return nil
	}
	return &model.AccountSnapshot{
		Exists:       true,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Role:         profile.Role,
		Organization: profile.Organization,
		Ref:          profile.Ref,
	}
}

func snapshotFromStore(user *storeclient.StoreUser) *model.AccountSnapshot {
	if user == nil {
		return nil
	}
	return &model.AccountSnapshot{
		Exists:    true,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Ref:       model.IdentityRef{StoreID: user.ID},
	}
}
