/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import "errors"

var (
	// ErrValidation is returned when a report cannot be recorded as submitted.
	ErrValidation = errors.New("invalid report")
	// ErrNotFound is returned when no entry exists for a device.
	ErrNotFound = errors.New("device not found")

	errNilReport = errors.New("report is nil")
)
