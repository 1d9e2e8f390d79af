/*
 * Copyright 2025 tomoncle.
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

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Paging defaults shared by callers that clamp instead of rejecting.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort directions accepted by Order.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

var (
	ErrInvalidPageNum   = errors.New("page number must be greater than 0")
	ErrInvalidPageSize  = errors.New("page size must be greater than 0")
	ErrInvalidDirection = errors.New("order direction must be asc or desc")
	ErrUnknownColumn    = errors.New("order property is not a column of the entity")
)

// Order is a single sort key.
type Order struct {
	Property  string `json:"property" yaml:"property"`
	Direction string `json:"direction" yaml:"direction"`
}

// NewOrder returns an Order for the given column and direction.
func NewOrder(property, direction string) Order {
	return Order{Property: property, Direction: direction}
}

// Asc returns an ascending Order on property.
func Asc(property string) Order { return NewOrder(property, DirectionAsc) }

// Desc returns a descending Order on property.
func Desc(property string) Order { return NewOrder(property, DirectionDesc) }

// Validate checks the direction literal and that a property is named. Whether the
// property exists on the entity table is checked by the repository.
func (o Order) Validate() error {
	if strings.TrimSpace(o.Property) == "" {
		return fmt.Errorf("%w: empty property", ErrUnknownColumn)
	}
	switch strings.ToLower(strings.TrimSpace(o.Direction)) {
	case DirectionAsc, DirectionDesc:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, o.Direction)
	}
}

// IsDesc reports whether the order sorts descending.
func (o Order) IsDesc() bool {
	return strings.EqualFold(strings.TrimSpace(o.Direction), DirectionDesc)
}

// ParseOrder parses "column" or "column:dir" (dir defaults to asc).
func ParseOrder(s string) (Order, error) {
	property, direction, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		direction = DirectionAsc
	}
	o := NewOrder(strings.TrimSpace(property), strings.TrimSpace(direction))
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Sorter is an ordered list of sort keys applied left to right.
type Sorter struct {
	Orders []Order `json:"orders" yaml:"orders"`
}

// NewSorter builds a Sorter from orders.
func NewSorter(orders ...Order) *Sorter {
	return &Sorter{Orders: orders}
}

// Pager is a 1-based page request. TotalPage and TotalRecord are filled on results.
type Pager struct {
	PageNum     int `json:"page_num" yaml:"page_num"`
	PageSize    int `json:"page_size" yaml:"page_size"`
	TotalPage   int `json:"total_page,omitempty" yaml:"total_page,omitempty"`
	TotalRecord int `json:"total_record,omitempty" yaml:"total_record,omitempty"`
}

// NewPager returns a Pager for page num of the given size.
func NewPager(num, size int) Pager {
	return Pager{PageNum: num, PageSize: size}
}

// Validate rejects non-positive page numbers and sizes.
func (p Pager) Validate() error {
	if p.PageSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.PageNum < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageNum, p.PageNum)
	}
	return nil
}

// Normalize clamps the pager into range instead of rejecting it.
func (p *Pager) Normalize(defaultSize, maxSize int) {
	if p.PageNum < 1 {
		p.PageNum = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
}

// Offset returns the number of rows skipped before the page.
func (p Pager) Offset() int {
	return Offset(p.PageNum, p.PageSize)
}

// PageHelper bundles a query object, a pager and an optional sorter.
type PageHelper struct {
	Query  Criteria
	Pager  Pager
	Sorter *Sorter
}

// NewPageHelper builds a PageHelper. sorter may be nil.
func NewPageHelper(query Criteria, pager Pager, sorter *Sorter) *PageHelper {
	return &PageHelper{Query: query, Pager: pager, Sorter: sorter}
}

// Orders returns the sorter's orders or nil.
func (h *PageHelper) Orders() []Order {
	if h == nil || h.Sorter == nil {
		return nil
	}
	return h.Sorter.Orders
}

// Validate checks the pager and every order.
func (h *PageHelper) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: missing page helper", ErrInvalidPageSize)
	}
	if err := h.Pager.Validate(); err != nil {
		return err
	}
	for _, o := range h.Orders() {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TotalPages is the ceiling of counts / size. size must be positive.
func TotalPages(counts, size int) int {
	if counts <= 0 {
		return 0
	}
	return (counts + size - 1) / size
}

// Offset returns (num - 1) * size.
func Offset(num, size int) int {
	return (num - 1) * size
}

// InRange reports whether page num has rows when there are pages pages.
func InRange(num, pages int) bool {
	return num-1 < pages
}

// Paginate is one page of rows plus totals.
type Paginate[T any] struct {
	PageNum  int     `json:"page_num"`
	PageSize int     `json:"page_size"`
	Counts   int     `json:"counts"`
	Pages    int     `json:"pages"`
	Items    []*T    `json:"items"`
	Orders   []Order `json:"orders,omitempty"`
}

// NewPaginate computes the page totals for counts matching rows. Items start empty.
func NewPaginate[T any](pager Pager, counts int, orders []Order) *Paginate[T] {
	return &Paginate[T]{
		PageNum:  pager.PageNum,
		PageSize: pager.PageSize,
		Counts:   counts,
		Pages:    TotalPages(counts, pager.PageSize),
		Items:    make([]*T, 0),
		Orders:   orders,
	}
}

// InRange reports whether the requested page lies within the result.
func (p *Paginate[T]) InRange() bool {
	return InRange(p.PageNum, p.Pages)
}

// Offset of the first item of this page.
func (p *Paginate[T]) Offset() int {
	return Offset(p.PageNum, p.PageSize)
}

func (p *Paginate[T]) HasNext() bool { return p.PageNum < p.Pages }

func (p *Paginate[T]) HasPrev() bool { return p.PageNum > 1 }

// NextNum returns the next page number, or 0 on the last page.
func (p *Paginate[T]) NextNum() int {
	if !p.HasNext() {
		return 0
	}
	return p.PageNum + 1
}

// PrevNum returns the previous page number, or 0 on the first page.
func (p *Paginate[T]) PrevNum() int {
	if !p.HasPrev() {
		return 0
	}
	return p.PageNum - 1
}

// Pager returns the request pager with totals filled in.
func (p *Paginate[T]) Pager() Pager {
	return Pager{
		PageNum:     p.PageNum,
		PageSize:    p.PageSize,
		TotalPage:   p.Pages,
		TotalRecord: p.Counts,
	}
}

// Sorter returns the echoed orders as a Sorter, or nil.
func (p *Paginate[T]) Sorter() *Sorter {
	if p.Orders == nil {
		return nil
	}
	return NewSorter(p.Orders...)
}
