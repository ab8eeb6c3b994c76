/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"regexp"
	"strings"
)

const (
	// maxScenes caps how many scenes are extracted from narrative text to
	// avoid excessive downstream generation calls.
	maxScenes = 10
	// minSceneLength filters out very short lines that are not scenes.
	minSceneLength = 25
)

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// SplitScenes splits narrative content into distinct scenes. A scene is a
// paragraph separated by blank lines; fragments shorter than 25 characters
// are dropped and at most 10 scenes are returned.
func SplitScenes(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var scenes []string
	for _, part := range blankLineRe.Split(content, -1) {
		s := strings.TrimSpace(part)
		if len(s) < minSceneLength {
			continue
		}
		scenes = append(scenes, s)
		if len(scenes) == maxScenes {
			break
		}
	}
	return scenes
}
