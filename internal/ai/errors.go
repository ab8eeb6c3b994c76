/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"errors"
	"fmt"
)

// ErrUnknownTask is returned by Invoke for a task id outside KnownTasks.
// The check happens before any request is built or sent.
var ErrUnknownTask = errors.New("unknown generation task")

// GenerationError wraps a failure of one task so callers can tell which
// task failed without parsing message strings.
type GenerationError struct {
	Task Task
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation task %s failed: %v", e.Task, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func generationFailed(task Task, err error) error {
	if err == nil {
		return nil
	}
	return &GenerationError{Task: task, Err: err}
}
