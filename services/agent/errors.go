// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import "errors"

var (
	// ErrAgentUnavailable indicates the agent could not produce any
	// result: the model was unreachable, timed out, or failed before a
	// single primitive succeeded.
	ErrAgentUnavailable = errors.New("agent unavailable")

	// ErrInvalidTransition indicates an attempted state transition that
	// the lifecycle graph does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoClient indicates the agent was constructed without a model
	// client.
	ErrNoClient = errors.New("no llm client configured")
)
