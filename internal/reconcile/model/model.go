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

package model

// IdentityRef holds the cross-system ids of one logical user. Either side
// may be empty; when both are populated the accounts are considered linked.
type IdentityRef struct {
	PortalID string `json:"portal_id,omitempty"`
	StoreID  int64  `json:"store_id,omitempty"`
}

// Linked reports whether both systems know this user.
func (r IdentityRef) Linked() bool {
	return r.PortalID != "" && r.StoreID != 0
}

// AccountSnapshot is a per-system read-only view produced by a probe.
// It is owned by the reconciliation call that created it and never cached.
type AccountSnapshot struct {
	Exists       bool   `json:"exists"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	Ref          IdentityRef
}

// ConflictRecord describes one field on which the two systems disagree.
type ConflictRecord struct {
	Field       string `json:"field"`
	PortalValue string `json:"portal_value"`
	StoreValue  string `json:"store_value"`
}

// Strategy is the reconciliation path chosen for one request.
type Strategy int

const (
	StrategyManualReview Strategy = iota
	StrategyCreateBoth
	StrategyCreatePortalLinkStore
	StrategyCreateStoreLinkPortal
	StrategyConfirmExistingPortal
	StrategyConfirmExistingStore
	StrategyConfirmExistingLinked
	StrategyLinkExisting
	StrategyResolveConflictsAndLink
)

func (s Strategy) String() string {
	switch s {
	case StrategyCreateBoth:
		return "create_both"
	case StrategyCreatePortalLinkStore:
		return "create_portal_link_store"
	case StrategyCreateStoreLinkPortal:
		return "create_store_link_portal"
	case StrategyConfirmExistingPortal:
		return "confirm_existing_portal"
	case StrategyConfirmExistingStore:
		return "confirm_existing_store"
	case StrategyConfirmExistingLinked:
		return "confirm_existing_linked"
	case StrategyLinkExisting:
		return "link_existing"
	case StrategyResolveConflictsAndLink:
		return "resolve_conflicts_and_link"
	default:
		return "manual_review"
	}
}

// AccessMode is the side of the system the request wants an account on.
type AccessMode string

const (
	AccessModePortalOnly AccessMode = "portal-only"
	AccessModeStoreOnly  AccessMode = "store-only"
	AccessModeBoth       AccessMode = "both"
)

// AccountStatus is the prober's verdict. PortalKnown/StoreKnown record
// whether the corresponding existence check actually settled; an unknown
// side forces manual review downstream.
type AccountStatus struct {
	PortalExists bool
	StoreExists  bool
	PortalKnown  bool
	StoreKnown   bool
	Linked       bool
	Portal       *AccountSnapshot
	Store        *AccountSnapshot
	Conflict     *ConflictRecord
	Conflicts    []ConflictRecord
}

// Certain reports whether both existence checks settled.
func (s AccountStatus) Certain() bool {
	return s.PortalKnown && s.StoreKnown
}

// Action taken by a completed reconciliation.
type Action string

const (
	ActionCreated              Action = "created"
	ActionLinked               Action = "linked"
	ActionConfirmedExisting    Action = "confirmed_existing"
	ActionRequiresConfirmation Action = "requires_confirmation"
)

// NextStep tells the caller what the user should do next.
type NextStep string

const (
	NextStepLogin         NextStep = "login"
	NextStepConfirmData   NextStep = "confirm_data"
	NextStepCompleteSetup NextStep = "complete_setup"
)

// ReconciliationOutcome is the engine's sole externally visible artifact.
type ReconciliationOutcome struct {
	Success       bool             `json:"success"`
	Action        Action           `json:"action,omitempty"`
	Strategy      string           `json:"strategy,omitempty"`
	PortalAccount *AccountSnapshot `json:"portal_account,omitempty"`
	StoreAccount  *AccountSnapshot `json:"store_account,omitempty"`
	Conflicts     []ConflictRecord `json:"conflicts,omitempty"`
	NextStep      NextStep         `json:"next_step,omitempty"`
	Message       string           `json:"message"`
	TraceID       string           `json:"trace_id,omitempty"`
}

// SignupRequest is the inbound form for a signup reconciliation.
type SignupRequest struct {
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         string     `json:"role,omitempty"`
	Organization string     `json:"organization,omitempty"`
	AccessMode   AccessMode `json:"access_mode,omitempty"`
}

// LoginRequest is the inbound form for a transparent login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest mirrors sign-out to the Store for linked users.
type LogoutRequest struct {
	PortalID string `json:"portal_id"`
	StoreID  int64  `json:"store_id,omitempty"`
}

// Profile is the verified identity returned by a credential check.
type Profile struct {
	Ref          IdentityRef
	Email        string
	FirstName    string
	LastName     string
	Role         string
	Organization string
	AccessToken  string
}
