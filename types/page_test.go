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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		counts, size, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
		{100, 10, 10},
		{7, 1, 7},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TotalPages(c.counts, c.size), "counts=%d size=%d", c.counts, c.size)
	}
}

func TestNewPaginateRange(t *testing.T) {
	p := NewPaginate[struct{}](NewPager(3, 20), 45, nil)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.InRange())
	assert.Equal(t, 40, p.Offset())
	assert.NotNil(t, p.Items)

	p = NewPaginate[struct{}](NewPager(4, 20), 45, nil)
	assert.False(t, p.InRange())

	p = NewPaginate[struct{}](NewPager(1, 20), 0, nil)
	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.InRange())
}

func TestPaginateNavigation(t *testing.T) {
	p := NewPaginate[struct{}](NewPager(1, 10), 25, nil)
	assert.False(t, p.HasPrev())
	assert.Equal(t, 0, p.PrevNum())
	assert.Equal(t, 2, p.NextNum())

	p = NewPaginate[struct{}](NewPager(3, 10), 25, nil)
	assert.False(t, p.HasNext())
	assert.Equal(t, 0, p.NextNum())
	assert.Equal(t, 2, p.PrevNum())

	pager := p.Pager()
	assert.Equal(t, 3, pager.TotalPage)
	assert.Equal(t, 25, pager.TotalRecord)
	assert.Nil(t, p.Sorter())
}

func TestPagerValidate(t *testing.T) {
	require.NoError(t, NewPager(1, 1).Validate())
	assert.ErrorIs(t, NewPager(1, 0).Validate(), ErrInvalidPageSize)
	assert.ErrorIs(t, NewPager(1, -5).Validate(), ErrInvalidPageSize)
	assert.ErrorIs(t, NewPager(0, 10).Validate(), ErrInvalidPageNum)
	assert.ErrorIs(t, NewPager(-1, 10).Validate(), ErrInvalidPageNum)
}

func TestPagerNormalize(t *testing.T) {
	p := NewPager(0, 0)
	p.Normalize(DefaultPageSize, MaxPageSize)
	assert.Equal(t, 1, p.PageNum)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p = NewPager(2, 1000)
	p.Normalize(DefaultPageSize, MaxPageSize)
	assert.Equal(t, 2, p.PageNum)
	assert.Equal(t, MaxPageSize, p.PageSize)
}

func TestOrderValidate(t *testing.T) {
	require.NoError(t, Asc("name").Validate())
	require.NoError(t, NewOrder("id", "DESC").Validate())
	assert.ErrorIs(t, NewOrder("id", "sideways").Validate(), ErrInvalidDirection)
	assert.ErrorIs(t, NewOrder("id", "").Validate(), ErrInvalidDirection)
	assert.ErrorIs(t, NewOrder(" ", "asc").Validate(), ErrUnknownColumn)
	assert.True(t, NewOrder("id", "Desc").IsDesc())
	assert.False(t, Asc("id").IsDesc())
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("name")
	require.NoError(t, err)
	assert.Equal(t, Asc("name"), o)

	o, err = ParseOrder("created_at:desc")
	require.NoError(t, err)
	assert.Equal(t, Desc("created_at"), o)

	_, err = ParseOrder("name:up")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestPageHelperValidate(t *testing.T) {
	h := NewPageHelper(MatchAll{}, NewPager(1, 10), NewSorter(Asc("name"), Desc("id")))
	require.NoError(t, h.Validate())
	assert.Len(t, h.Orders(), 2)

	h = NewPageHelper(MatchAll{}, NewPager(1, 10), NewSorter(NewOrder("name", "random")))
	assert.ErrorIs(t, h.Validate(), ErrInvalidDirection)

	h = NewPageHelper(nil, NewPager(1, 0), nil)
	assert.ErrorIs(t, h.Validate(), ErrInvalidPageSize)
	assert.Nil(t, h.Orders())
}
