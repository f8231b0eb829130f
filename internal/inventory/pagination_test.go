package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePageSize(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		filtersActive bool
		wantSize      int
		wantAll       bool
	}{
		{"default", "", false, 50, false},
		{"valid choice", "200", false, 200, false},
		{"invalid number falls back", "123", false, 50, false},
		{"garbage falls back", "lots", false, 50, false},
		{"all keyword", "all", false, 0, true},
		{"filters force all", "50", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, all := NormalizePageSize(tt.raw, tt.filtersActive)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantAll, all)
		})
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage("abc", 10))
	assert.Equal(t, 1, ClampPage("", 10))
	assert.Equal(t, 1, ClampPage("0", 10))
	assert.Equal(t, 1, ClampPage("-3", 10))
	assert.Equal(t, 10, ClampPage("11", 10))
	assert.Equal(t, 10, ClampPage("9999", 10))
	assert.Equal(t, 7, ClampPage("7", 10))
	assert.Equal(t, 1, ClampPage("5", 0))
}

func TestNumPages(t *testing.T) {
	assert.Equal(t, 1, NumPages(0, 50))
	assert.Equal(t, 1, NumPages(50, 50))
	assert.Equal(t, 2, NumPages(51, 50))
	assert.Equal(t, 3, NumPages(101, 50))
	assert.Equal(t, 1, NumPages(10, 0))
}

func TestPageWindow(t *testing.T) {
	t.Run("few pages lists all, no ellipses", func(t *testing.T) {
		w := PageWindow(3, 7)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, w.Pages)
		assert.False(t, w.ShowFirstEllipsis)
		assert.False(t, w.ShowLastEllipsis)
	})

	t.Run("middle of a long run shows both ellipses", func(t *testing.T) {
		w := PageWindow(10, 20)
		assert.Equal(t, []int{8, 9, 10, 11, 12}, w.Pages)
		assert.True(t, w.ShowFirstEllipsis)
		assert.True(t, w.ShowLastEllipsis)
	})

	t.Run("near the start widens right", func(t *testing.T) {
		w := PageWindow(2, 20)
		assert.Equal(t, []int{2, 3, 4, 5, 6}, w.Pages)
		assert.False(t, w.ShowFirstEllipsis)
		assert.True(t, w.ShowLastEllipsis)
	})

	t.Run("near the end widens left", func(t *testing.T) {
		w := PageWindow(19, 20)
		assert.Equal(t, []int{15, 16, 17, 18, 19}, w.Pages)
		assert.True(t, w.ShowFirstEllipsis)
		assert.False(t, w.ShowLastEllipsis)
	})

	t.Run("first page", func(t *testing.T) {
		w := PageWindow(1, 20)
		assert.Equal(t, []int{2, 3, 4, 5, 6}, w.Pages)
		assert.False(t, w.ShowFirstEllipsis)
		assert.True(t, w.ShowLastEllipsis)
	})

	t.Run("last page", func(t *testing.T) {
		w := PageWindow(20, 20)
		assert.Equal(t, []int{15, 16, 17, 18, 19}, w.Pages)
		assert.True(t, w.ShowFirstEllipsis)
		assert.False(t, w.ShowLastEllipsis)
	})
}

func TestLocatePage(t *testing.T) {
	ids := []int64{10, 20, 30, 40, 50, 60, 70}
	assert.Equal(t, 1, LocatePage(ids, 10, 3))
	assert.Equal(t, 1, LocatePage(ids, 30, 3))
	assert.Equal(t, 2, LocatePage(ids, 40, 3))
	assert.Equal(t, 3, LocatePage(ids, 70, 3))
	assert.Equal(t, 1, LocatePage(ids, 999, 3))
	assert.Equal(t, 1, LocatePage(ids, 40, 0))
}
