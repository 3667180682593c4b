package mapping

import "encoding/json"

// Placeholders is an ordered token dictionary. Keys keep insertion order so
// previews and audits list them the same way every time.
type Placeholders struct {
	keys   []string
	values map[string]string
}

func newPlaceholders() Placeholders {
	return Placeholders{values: make(map[string]string)}
}

// set keeps the first value written for a key.
func (p *Placeholders) set(key, value string) bool {
	if _, ok := p.values[key]; ok {
		return false
	}
	p.keys = append(p.keys, key)
	p.values[key] = value
	return true
}

func (p Placeholders) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Placeholders) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p Placeholders) Len() int { return len(p.keys) }

// Map returns a copy suitable for substitution.
func (p Placeholders) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

func (p Placeholders) MarshalJSON() ([]byte, error) {
	type entry struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	entries := make([]entry, 0, len(p.keys))
	for _, k := range p.keys {
		entries = append(entries, entry{Key: k, Value: p.values[k]})
	}
	return json.Marshal(entries)
}
