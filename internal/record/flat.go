package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind is the type tag of a field value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindFlat
)

type field struct {
	key  string
	kind Kind
	s    string
	i    int64
	b    bool
	sub  *Flat
}

// Flat is an ordered key/value record. Values are strings, integers, booleans
// or nested records. Putting an existing key overwrites it in place.
type Flat struct {
	fields []field
	index  map[string]int
}

func New() *Flat {
	return &Flat{index: make(map[string]int)}
}

func (f *Flat) put(fl field) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[fl.key]; ok {
		f.fields[i] = fl
		return
	}
	f.index[fl.key] = len(f.fields)
	f.fields = append(f.fields, fl)
}

func (f *Flat) PutString(key, v string)     { f.put(field{key: key, kind: KindString, s: v}) }
func (f *Flat) PutInt(key string, v int64)  { f.put(field{key: key, kind: KindInt, i: v}) }
func (f *Flat) PutBool(key string, v bool)  { f.put(field{key: key, kind: KindBool, b: v}) }
func (f *Flat) PutFlat(key string, v *Flat) { f.put(field{key: key, kind: KindFlat, sub: v}) }

func (f *Flat) get(key string, kind Kind) (field, bool) {
	i, ok := f.index[key]
	if !ok || f.fields[i].kind != kind {
		return field{}, false
	}
	return f.fields[i], true
}

func (f *Flat) GetString(key string) (string, bool) {
	fl, ok := f.get(key, KindString)
	return fl.s, ok
}

func (f *Flat) GetInt(key string) (int64, bool) {
	fl, ok := f.get(key, KindInt)
	return fl.i, ok
}

func (f *Flat) GetBool(key string) (bool, bool) {
	fl, ok := f.get(key, KindBool)
	return fl.b, ok
}

func (f *Flat) GetFlat(key string) (*Flat, bool) {
	fl, ok := f.get(key, KindFlat)
	return fl.sub, ok
}

// Kind returns the type of the value stored under key, or 0.
func (f *Flat) Kind(key string) Kind {
	if i, ok := f.index[key]; ok {
		return f.fields[i].kind
	}
	return 0
}

// Keys returns the keys in insertion order.
func (f *Flat) Keys() []string {
	keys := make([]string, len(f.fields))
	for i, fl := range f.fields {
		keys[i] = fl.key
	}
	return keys
}

func (f *Flat) Len() int { return len(f.fields) }

func (f *Flat) Clear() {
	f.fields = f.fields[:0]
	clear(f.index)
}

// MarshalJSON encodes the record as a JSON object with keys in order.
func (f *Flat) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fl := range f.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(fl.key)
		buf.Write(k)
		buf.WriteByte(':')
		switch fl.kind {
		case KindString:
			v, _ := json.Marshal(fl.s)
			buf.Write(v)
		case KindInt:
			buf.WriteString(strconv.FormatInt(fl.i, 10))
		case KindBool:
			buf.WriteString(strconv.FormatBool(fl.b))
		case KindFlat:
			v, err := fl.sub.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the record's contents. Numbers must be integers;
// arrays and nulls are rejected.
func (f *Flat) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("record: expected object")
	}
	f.Clear()
	return f.decodeObject(dec)
}

func (f *Flat) decodeObject(dec *json.Decoder) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: bad key %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case string:
			f.PutString(key, v)
		case bool:
			f.PutBool(key, v)
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return fmt.Errorf("record: %q: %w", key, err)
			}
			f.PutInt(key, n)
		case json.Delim:
			if v != '{' {
				return fmt.Errorf("record: %q: unsupported value %v", key, v)
			}
			sub := New()
			if err := sub.decodeObject(dec); err != nil {
				return err
			}
			f.PutFlat(key, sub)
		default:
			return fmt.Errorf("record: %q: unsupported value %v", key, tok)
		}
	}
	// closing brace
	_, err := dec.Token()
	return err
}
