package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuchniy0511/ordkv/types"
)

func seeded() *Store {
	return New(
		types.Entry[string, string]{Key: "A", Value: "1"},
		types.Entry[string, string]{Key: "B", Value: "2"},
		types.Entry[string, string]{Key: "C", Value: "3"},
	)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		item     types.Item
		found    bool
		value    string
		index    *int
		count    int
		err      error
		contents string
	}{
		{
			name:     "add new",
			item:     types.Item{Action: types.AddItem, Key: "D", Value: "10"},
			found:    true,
			value:    "10",
			index:    types.IntPtr(3),
			count:    4,
			contents: "[A: 1, B: 2, C: 3, D: 10]",
		},
		{
			name:     "add existing",
			item:     types.Item{Action: types.AddItem, Key: "A", Value: "5"},
			found:    true,
			value:    "5",
			index:    types.IntPtr(0),
			count:    3,
			contents: "[A: 5, B: 2, C: 3]",
		},
		{
			name:     "get",
			item:     types.Item{Action: types.GetItem, Key: "B"},
			found:    true,
			value:    "2",
			index:    types.IntPtr(1),
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "get missing",
			item:     types.Item{Action: types.GetItem, Key: "Z"},
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "index of",
			item:     types.Item{Action: types.IndexOfItem, Key: "C"},
			found:    true,
			value:    "3",
			index:    types.IntPtr(2),
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "remove",
			item:     types.Item{Action: types.RemoveItem, Key: "B"},
			found:    true,
			value:    "2",
			index:    types.IntPtr(1),
			count:    2,
			contents: "[A: 1, C: 3]",
		},
		{
			name:     "remove missing",
			item:     types.Item{Action: types.RemoveItem, Key: "K"},
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "get at",
			item:     types.Item{Action: types.GetItemAt, Index: types.IntPtr(2)},
			found:    true,
			value:    "3",
			index:    types.IntPtr(2),
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "get at out of range",
			item:     types.Item{Action: types.GetItemAt, Index: types.IntPtr(10)},
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "remove at",
			item:     types.Item{Action: types.RemoveItemAt, Index: types.IntPtr(0)},
			found:    true,
			value:    "1",
			index:    types.IntPtr(0),
			count:    2,
			contents: "[B: 2, C: 3]",
		},
		{
			name:     "remove at out of range",
			item:     types.Item{Action: types.RemoveItemAt, Index: types.IntPtr(5)},
			count:    3,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "set at rename",
			item:     types.Item{Action: types.SetItemAt, Index: types.IntPtr(0), Key: "F", Value: "10"},
			found:    true,
			value:    "10",
			index:    types.IntPtr(0),
			count:    3,
			contents: "[F: 10, B: 2, C: 3]",
		},
		{
			name:     "set at duplicate",
			item:     types.Item{Action: types.SetItemAt, Index: types.IntPtr(0), Key: "C", Value: "10"},
			err:      types.ErrDuplicateKey,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "set at out of range",
			item:     types.Item{Action: types.SetItemAt, Index: types.IntPtr(3), Key: "C", Value: "10"},
			err:      types.ErrIndexOutOfRange,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "insert moves key after",
			item:     types.Item{Action: types.InsertItem, Index: types.IntPtr(3), Key: "B", Value: "5"},
			found:    true,
			value:    "5",
			index:    types.IntPtr(2),
			count:    3,
			contents: "[A: 1, C: 3, B: 5]",
		},
		{
			name:     "insert without index",
			item:     types.Item{Action: types.InsertItem, Key: "B", Value: "5"},
			err:      ErrMissingIndex,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "clear",
			item:     types.Item{Action: types.ClearItems},
			contents: "[]",
		},
		{
			name:     "sort desc",
			item:     types.Item{Action: types.SortItems, Order: types.OrderKeyDesc},
			count:    3,
			contents: "[C: 3, B: 2, A: 1]",
		},
		{
			name:     "sort unknown",
			item:     types.Item{Action: types.SortItems, Order: "sideways"},
			err:      ErrUnknownOrder,
			contents: "[A: 1, B: 2, C: 3]",
		},
		{
			name:     "unknown action",
			item:     types.Item{Action: "Explode"},
			err:      ErrUnknownAction,
			contents: "[A: 1, B: 2, C: 3]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := seeded()
			res := s.Apply(&tc.item)

			if tc.err != nil {
				assert.Contains(t, res.Error, tc.err.Error())
			} else {
				assert.Empty(t, res.Error)
				assert.Equal(t, tc.found, res.Found)
				assert.Equal(t, tc.value, res.Value)
				assert.Equal(t, tc.index, res.Index)
				assert.Equal(t, tc.count, res.Count)
			}
			assert.Equal(t, tc.contents, s.Snapshot().String())
		})
	}
}

func TestApplyPrevious(t *testing.T) {
	s := seeded()

	res := s.Apply(&types.Item{Action: types.AddItem, Key: "A", Value: "5"})
	require.NotNil(t, res.Previous)
	assert.Equal(t, "1", *res.Previous)

	res = s.Apply(&types.Item{Action: types.AddItem, Key: "N", Value: "5"})
	assert.Nil(t, res.Previous)

	res = s.Apply(&types.Item{Action: types.InsertItem, Index: types.IntPtr(0), Key: "B", Value: "7"})
	require.NotNil(t, res.Previous)
	assert.Equal(t, "2", *res.Previous)
}

func TestApplyListing(t *testing.T) {
	s := seeded()

	res := s.Apply(&types.Item{Action: types.GetAllItems})
	want := []types.Pair{{Key: "A", Value: "1"}, {Key: "B", Value: "2"}, {Key: "C", Value: "3"}}
	if diff := cmp.Diff(want, res.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	res = s.Apply(&types.Item{Action: types.DescribeItems})
	assert.Equal(t, "[A: 1, B: 2, C: 3]", res.Description)

	res = s.Apply(&types.Item{Action: types.CountItems})
	assert.Equal(t, 3, res.Count)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := seeded()
	snap := s.Snapshot()
	s.Apply(&types.Item{Action: types.ClearItems})
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, 0, s.Len())
}

func TestConcurrentApply(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			s.Apply(&types.Item{Action: types.AddItem, Key: key, Value: key})
			s.Apply(&types.Item{Action: types.GetItem, Key: key})
			s.Apply(&types.Item{Action: types.InsertItem, Index: types.IntPtr(0), Key: key, Value: key})
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 50, snap.Len())
	for _, e := range snap.All() {
		assert.Equal(t, e.Key, e.Value)
	}
}
