/*
 * Copyright 2025 Bitshield Networks.
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

package models

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Page is a normalized pagination request. Page numbers are 1-based.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw pagination input to sane bounds.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}

	if size < 1 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Page{Number: number, Size: size}
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the maximum number of rows to return.
func (p Page) Limit() int {
	return p.Size
}

// PagedResult wraps a page of items with the total row count.
type PagedResult[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
