/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// PanelLayout is an enumerated panel-arrangement template for a page.
type PanelLayout string

const (
	LayoutGrid2x3         PanelLayout = "grid_2x3"
	LayoutGrid1x3Vertical PanelLayout = "grid_1x3_vertical"
	LayoutGrid2x2         PanelLayout = "grid_2x2"
	LayoutSplashFullPage  PanelLayout = "splash_full_page"
	LayoutCustom          PanelLayout = "custom"
)

// DefaultLayout is the layout applied to pages created without an explicit
// choice.
const DefaultLayout = LayoutGrid2x3

// InitialPagesInNewChapter is how many pages a brand-new project's first
// chapter is pre-created with, so the project has room to grow without
// immediate re-layout. Pages beyond the first start with empty panel lists.
const InitialPagesInNewChapter = 3

// PanelCount returns the number of panels a layout expects. Custom layouts
// have no fixed count and report 0.
func (l PanelLayout) PanelCount() int {
	switch l {
	case LayoutGrid2x3:
		return 6
	case LayoutGrid1x3Vertical:
		return 3
	case LayoutGrid2x2:
		return 4
	case LayoutSplashFullPage:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is one of the known layout templates.
func (l PanelLayout) Valid() bool {
	switch l {
	case LayoutGrid2x3, LayoutGrid1x3Vertical, LayoutGrid2x2, LayoutSplashFullPage, LayoutCustom:
		return true
	}
	return false
}

// DefaultSceneSettings returns the settings new panels start with.
func DefaultSceneSettings() SceneSettings {
	return SceneSettings{CameraAngle: "default", DetailLevel: 3, ColorTone: ToneDefault}
}

// DefaultChapters returns the minimal chapter skeleton used when repairing
// documents that were persisted without any chapters.
func DefaultChapters() []Chapter {
	return []Chapter{{
		ChapterNumber: 1,
		Pages: []Page{{
			PageNumber: 1,
			Layout:     DefaultLayout,
			Panels:     []Panel{},
		}},
	}}
}
