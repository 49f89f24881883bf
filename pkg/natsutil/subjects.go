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

package natsutil

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// ReportSubjectPrefix is the subject space agents publish into.
	ReportSubjectPrefix = "fleet.reports"
	// DefaultReportSubject matches every device subject.
	DefaultReportSubject = ReportSubjectPrefix + ".>"
	// DefaultQueue is the queue group, or durable name, of core instances.
	DefaultQueue = "fleet-core"
)

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

// ReportSubject returns the subject a device publishes to under prefix.
// Characters that are special in NATS subjects are replaced in the id.
func ReportSubject(prefix, deviceID string) string {
	if prefix == "" {
		prefix = ReportSubjectPrefix
	}

	token := subjectReplacer.Replace(strings.TrimSpace(deviceID))
	if token == "" {
		token = "unknown"
	}

	return strings.TrimSuffix(prefix, ".") + "." + token
}

// matchesSubject reports whether subject is covered by pattern using NATS
// wildcard rules.
func matchesSubject(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, p := range pTokens {
		if p == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if p != "*" && p != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}

// ensureSubjectList appends subject unless an existing entry already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
