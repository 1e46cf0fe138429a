package annotation

import (
	"encoding/json"
	"fmt"
)

// CUILess marks a mention the tagger found but could not link to any
// vocabulary concept.
const CUILess = "CUI-less"

// IDList holds the identifiers attached to a mention. Taggers are not
// consistent about the field's JSON shape: it arrives as a bare string, as a
// list of strings, or as a list with single-element lists nested inside. The
// decoder resolves all three shapes to a flat list once, at ingress, so the
// rest of the pipeline never deals with the union.
type IDList []string

func (ids *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*ids = IDList{single}
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return fmt.Errorf("mention id is neither a string nor a list: %w", err)
	}

	flat := make(IDList, 0, len(elements))
	for _, element := range elements {
		var id string
		if err := json.Unmarshal(element, &id); err == nil {
			flat = append(flat, id)
			continue
		}
		var wrapped []string
		if err := json.Unmarshal(element, &wrapped); err != nil || len(wrapped) == 0 {
			return fmt.Errorf("unsupported mention id element %s", element)
		}
		flat = append(flat, wrapped[0])
	}
	*ids = flat
	return nil
}

// HasCUI reports whether the list names at least one real concept rather
// than the bare CUI-less sentinel.
func (ids IDList) HasCUI() bool {
	return len(ids) != 1 || ids[0] != CUILess
}

func (ids IDList) Equal(other IDList) bool {
	if len(ids) != len(other) {
		return false
	}
	for i := range ids {
		if ids[i] != other[i] {
			return false
		}
	}
	return true
}
