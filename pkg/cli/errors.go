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

package cli

import "errors"

var (
	errUnknownCommand   = errors.New("unknown command")
	errDeviceIDRequired = errors.New("device requires a device id")
	errInvalidOutput    = errors.New("output must be table or json")
	errInvalidInterval  = errors.New("interval must be positive")
	errDeviceNotFound   = errors.New("device not found")
	errRequestFailed    = errors.New("request failed")
	errClipboardFailed  = errors.New("failed to copy to clipboard")
)
