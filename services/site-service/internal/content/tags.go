package content

import (
	"encoding/json"
	"errors"
	"strings"
)

// Tags accepts either a JSON array of strings or a comma-separated string.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*t = NormalizeTags(strings.Split(raw, ","))
		return nil
	}
	if string(data) == "null" {
		*t = nil
		return nil
	}
	return errors.New("tags must be a list or a comma separated string")
}

// NormalizeTags trims, drops empties and removes duplicates, keeping order.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
