// Package store puts a types.OrderedMap behind a lock so that the server, the
// HTTP API and the clients can share it.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/skuchniy0511/ordkv/types"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingIndex  = errors.New("index is required")
	ErrUnknownOrder  = errors.New("unknown sort order")
)

type Store struct {
	data *types.OrderedMap[string, string]
	mux  sync.RWMutex
}

func New(seed ...types.Entry[string, string]) *Store {
	return &Store{
		data: types.FromPairs(seed...),
	}
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() *types.OrderedMap[string, string] {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.data.Clone()
}

func (s *Store) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.data.Len()
}

// Apply runs item against the map and reports what happened. Lookups that
// find nothing are not errors; Result.Found is false instead.
func (s *Store) Apply(item *types.Item) (res types.Result) {
	res = types.Result{ID: item.ID, Action: item.Action, Key: item.Key}

	var err error
	switch item.Action {
	case types.AddItem:
		s.mux.Lock()
		defer s.mux.Unlock()
		prev, existed := s.data.Set(item.Key, item.Value)
		res.Found = true
		res.Value = item.Value
		res.Previous = previous(prev, existed)
		res.Index = s.indexOf(item.Key)
	case types.GetItem:
		s.mux.RLock()
		defer s.mux.RUnlock()
		res.Value, res.Found = s.data.Get(item.Key)
		res.Index = s.indexOf(item.Key)
	case types.IndexOfItem:
		s.mux.RLock()
		defer s.mux.RUnlock()
		res.Index = s.indexOf(item.Key)
		res.Value, res.Found = s.data.Get(item.Key)
	case types.RemoveItem:
		s.mux.Lock()
		defer s.mux.Unlock()
		res.Index = s.indexOf(item.Key)
		res.Value, res.Found = s.data.Delete(item.Key)
	case types.GetItemAt:
		s.mux.RLock()
		defer s.mux.RUnlock()
		err = s.entryAt(item, &res, s.data.At)
	case types.RemoveItemAt:
		s.mux.Lock()
		defer s.mux.Unlock()
		err = s.entryAt(item, &res, s.data.RemoveAt)
	case types.SetItemAt:
		if item.Index == nil {
			err = ErrMissingIndex
			break
		}
		s.mux.Lock()
		defer s.mux.Unlock()
		var old types.Entry[string, string]
		old, err = s.data.SetAt(*item.Index, item.Key, item.Value)
		if err == nil {
			res.Found = true
			res.Value = item.Value
			res.Previous = &old.Value
			res.Index = item.Index
		}
	case types.InsertItem:
		if item.Index == nil {
			err = ErrMissingIndex
			break
		}
		s.mux.Lock()
		defer s.mux.Unlock()
		prev, existed := s.data.Insert(*item.Index, item.Key, item.Value)
		res.Found = true
		res.Value = item.Value
		res.Previous = previous(prev, existed)
		res.Index = s.indexOf(item.Key)
	case types.GetAllItems:
		s.mux.RLock()
		defer s.mux.RUnlock()
		res.Items = s.items()
	case types.SortItems:
		s.mux.Lock()
		defer s.mux.Unlock()
		err = s.sort(item.Order)
		if err == nil {
			res.Items = s.items()
		}
	case types.ClearItems:
		s.mux.Lock()
		defer s.mux.Unlock()
		s.data.Clear()
	case types.CountItems:
		s.mux.RLock()
		defer s.mux.RUnlock()
	case types.DescribeItems:
		s.mux.RLock()
		defer s.mux.RUnlock()
		res.Description = s.data.String()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, item.Action)
	}

	if err != nil {
		res.Error = err.Error()
		return res
	}
	// still under the lock taken above
	res.Count = s.data.Len()

	return res
}

func (s *Store) entryAt(item *types.Item, res *types.Result, fn func(int) (types.Entry[string, string], bool)) error {
	if item.Index == nil {
		return ErrMissingIndex
	}
	e, ok := fn(*item.Index)
	res.Found = ok
	if ok {
		res.Key = e.Key
		res.Value = e.Value
		res.Index = item.Index
	}

	return nil
}

func (s *Store) sort(order string) error {
	switch order {
	case "", types.OrderKeyAsc:
		types.SortByKey(s.data, false)
	case types.OrderKeyDesc:
		types.SortByKey(s.data, true)
	case types.OrderValueAsc:
		types.SortByValue(s.data, false)
	case types.OrderValueDesc:
		types.SortByValue(s.data, true)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOrder, order)
	}

	return nil
}

func (s *Store) items() []types.Pair {
	items := make([]types.Pair, 0, s.data.Len())
	for _, e := range s.data.All() {
		items = append(items, types.Pair{Key: e.Key, Value: e.Value})
	}

	return items
}

func (s *Store) indexOf(key string) *int {
	if i, ok := s.data.IndexOf(key); ok {
		return &i
	}
	return nil
}

func previous(v string, existed bool) *string {
	if !existed {
		return nil
	}
	return &v
}
