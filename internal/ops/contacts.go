package ops

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	contactsInput  = "contacts.json"
	contactsOutput = "contacts-sorted.json"
)

type contactKey struct {
	last, first string
}

func keyOf(raw json.RawMessage) contactKey {
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	last, _ := fields["last_name"].(string)
	first, _ := fields["first_name"].(string)
	return contactKey{last: last, first: first}
}

// SortContacts orders contacts by last name then first name. Entries keep
// their original key order.
func (h *Handlers) SortContacts(ctx context.Context) (*tasks.Result, error) {
	data, err := h.Root.ReadFile(contactsInput)
	if err != nil {
		return nil, err
	}

	var contacts []json.RawMessage
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, tasks.ExecutionError("parse "+h.Root.External(contactsInput), err)
	}

	keys := make([]contactKey, len(contacts))
	for i, c := range contacts {
		keys[i] = keyOf(c)
	}
	idx := make([]int, len(contacts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.last != kb.last {
			return ka.last < kb.last
		}
		return ka.first < kb.first
	})
	sorted := make([]json.RawMessage, len(contacts))
	for i, j := range idx {
		sorted[i] = contacts[j]
	}

	out, err := marshalIndent(sorted)
	if err != nil {
		return nil, tasks.ExecutionError("encode contacts", err)
	}
	if err := h.Root.WriteFileAtomic(contactsOutput, out); err != nil {
		return nil, err
	}

	return tasks.Success("Contacts sorted").
		With("output_file", h.Root.External(contactsOutput)), nil
}
