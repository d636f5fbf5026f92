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

package errors

const errorPrefix = "IRS-"

var (
	// Server error codes

	PORTAL_UNAVAILABLE = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Portal service is unavailable.",
	}

	STORE_UNAVAILABLE = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Store service is unavailable.",
	}

	PORTAL_CREATE_FAILED = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while creating portal account.",
	}

	STORE_CREATE_FAILED = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while creating store account.",
	}

	LINK_ACCOUNTS_FAILED = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while linking accounts.",
	}

	PROFILE_SYNC_FAILED = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while synchronizing profile data.",
	}

	SESSION_SYNC_FAILED = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while synchronizing store session.",
	}

	MIGRATION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while migrating store account to portal.",
	}

	ROLLBACK_PENDING = ErrorMessage{
		Code:        errorPrefix + "15009",
		Message:     "Account rollback could not be completed.",
		Description: "A compensating action record has been written for manual reconciliation.",
	}

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Unable to initialize database client.",
	}

	COMPENSATION_RECORD_FAILED = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while persisting compensation record.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Error while un-marshalling JSON.",
	}

	HEALTH_CHECK_FAILED = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Error while probing service health.",
	}

	PASSWORD_RESET_FAILED = ErrorMessage{
		Code:    errorPrefix + "15015",
		Message: "Error while sending password reset email.",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	INVALID_CREDENTIALS = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Invalid email or password.",
		Description: "The provided credentials could not be verified.",
	}

	BUSINESS_CONFLICT = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Account conflict detected.",
		Description: "An account already exists with conflicting state. The operation was not completed.",
	}

	MANUAL_REVIEW_REQUIRED = ErrorMessage{
		Code:        errorPrefix + "11004",
		Message:     "Account state requires manual review.",
		Description: "The account state could not be determined safely. Please contact support.",
	}

	SIGNUP_FAILED = ErrorMessage{
		Code:    errorPrefix + "11005",
		Message: "Account creation failed.",
	}

	EMAIL_REQUIRED = ErrorMessage{
		Code:    errorPrefix + "11006",
		Message: "Email is required.",
	}

	PASSWORD_REQUIRED = ErrorMessage{
		Code:    errorPrefix + "11007",
		Message: "Password is required.",
	}

	RECORD_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11008",
		Message:     "Reconciliation record not found.",
		Description: "No pending reconciliation record found for the given record_id.",
	}

	UNAUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "11009",
		Message:     "Unauthorized.",
		Description: "The request is not authorized to access this resource.",
	}
)
