package types

import (
	"fmt"
	"strings"
)

type Item struct {
	ID     string     `json:"id,omitempty"`
	Key    string     `json:"key"`
	Value  string     `json:"value"`
	Index  *int       `json:"index,omitempty"`
	Order  string     `json:"order,omitempty"`
	Action ActionType `json:"action"`
}

type ActionType string

const (
	GetAllItems   ActionType = "GetAllItems"
	GetItem       ActionType = "GetItem"
	AddItem       ActionType = "AddItem"
	RemoveItem    ActionType = "RemoveItem"
	InsertItem    ActionType = "InsertItem"
	SetItemAt     ActionType = "SetItemAt"
	GetItemAt     ActionType = "GetItemAt"
	RemoveItemAt  ActionType = "RemoveItemAt"
	IndexOfItem   ActionType = "IndexOfItem"
	ClearItems    ActionType = "ClearItems"
	SortItems     ActionType = "SortItems"
	CountItems    ActionType = "CountItems"
	DescribeItems ActionType = "DescribeItems"
)

// Sort orders accepted by SortItems.
const (
	OrderKeyAsc    = "asc"
	OrderKeyDesc   = "desc"
	OrderValueAsc  = "value"
	OrderValueDesc = "value-desc"
)

// IntPtr is a helper for filling Item.Index.
func IntPtr(i int) *int {
	return &i
}

type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Result is the answer to one Item.
type Result struct {
	ID          string     `json:"id,omitempty"`
	Action      ActionType `json:"action"`
	Found       bool       `json:"found"`
	Key         string     `json:"key,omitempty"`
	Value       string     `json:"value,omitempty"`
	Previous    *string    `json:"previous,omitempty"`
	Index       *int       `json:"index,omitempty"`
	Count       int        `json:"count"`
	Items       []Pair     `json:"items,omitempty"`
	Description string     `json:"description,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// String renders the result as a single journal line.
func (r Result) String() string {
	if r.Error != "" {
		return fmt.Sprintf("%s() failed: %s", r.Action, r.Error)
	}

	switch r.Action {
	case AddItem:
		return fmt.Sprintf("%s() done. Item(key: %s, value: %s) created: %t", r.Action, r.Key, r.Value, r.Previous == nil)
	case GetItem, GetItemAt, RemoveItem, RemoveItemAt, IndexOfItem:
		if !r.Found {
			return fmt.Sprintf("%s() done. Item(key: %s) not found", r.Action, r.Key)
		}
		return fmt.Sprintf("%s() done. Item(key: %s, value: %s, index: %d)", r.Action, r.Key, r.Value, deref(r.Index))
	case InsertItem, SetItemAt:
		return fmt.Sprintf("%s() done. Item(key: %s, value: %s, index: %d)", r.Action, r.Key, r.Value, deref(r.Index))
	case GetAllItems, SortItems:
		var sb strings.Builder
		for _, p := range r.Items {
			fmt.Fprintf(&sb, " Item(key: %s, value: %s)", p.Key, p.Value)
		}
		return fmt.Sprintf("%s() done.%s", r.Action, sb.String())
	case DescribeItems:
		return fmt.Sprintf("%s() done. %s", r.Action, r.Description)
	default:
		return fmt.Sprintf("%s() done. count: %d", r.Action, r.Count)
	}
}

func deref(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}
