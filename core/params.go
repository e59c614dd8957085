package core

import (
	"net/url"
	"strings"
)

// Params is an ordered string mapping. Setting an existing key replaces its
// value in place, so the last write wins and the first position is kept.
// Copies of a Params value are independent: Set and Delete never write to
// storage another copy can observe.
type Params struct {
	keys   []string
	values map[string]string
}

func NewParams(pairs ...string) Params {
	p := Params{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.set(pairs[i], pairs[i+1])
	}
	return p
}

func ParamsFromMap(values map[string]string) Params {
	p := Params{values: make(map[string]string, len(values))}
	for _, key := range sortedKeys(values) {
		p.set(key, values[key])
	}
	return p
}

func (p *Params) Set(key string, value string) {
	*p = p.Clone()
	p.set(key, value)
}

// set writes into storage p already owns.
func (p *Params) set(key string, value string) {
	if p.values == nil {
		p.values = map[string]string{}
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p Params) Get(key string) (string, bool) {
	value, ok := p.values[key]
	return value, ok
}

func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *Params) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	*p = p.Clone()
	delete(p.values, key)
	for i, existing := range p.keys {
		if existing == key {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p Params) Len() int {
	return len(p.keys)
}

func (p Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Merge returns a copy of p with other applied on top; values from other win
// on key collision.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for _, key := range other.keys {
		out.set(key, other.values[key])
	}
	return out
}

func (p Params) Clone() Params {
	out := Params{
		keys:   append([]string(nil), p.keys...),
		values: make(map[string]string, len(p.values)),
	}
	for key, value := range p.values {
		out.values[key] = value
	}
	return out
}

func (p Params) Values() url.Values {
	out := make(url.Values, len(p.keys))
	for _, key := range p.keys {
		out.Set(key, p.values[key])
	}
	return out
}

// Encode renders the parameters as application/x-www-form-urlencoded in
// insertion order.
func (p Params) Encode() string {
	if len(p.keys) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[key]))
	}
	return b.String()
}

func ParseParams(encoded string) (Params, error) {
	out := Params{}
	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return Params{}, err
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return Params{}, err
		}
		out.set(decodedKey, decodedValue)
	}
	return out, nil
}
