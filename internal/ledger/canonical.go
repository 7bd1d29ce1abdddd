package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
)

// canonicalJSON serializes v as JSON with object keys sorted and no
// insignificant whitespace. Go's encoding/json already sorts map keys and
// emits compact output, but preserves struct-declaration field order
// instead of sorting it; round-tripping through a generic map forces true
// key-sorted output regardless of the source struct's field order, which is
// what the ledger's hash chain depends on for byte-stable hashing.
func canonicalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	return marshalCanonical(generic)
}

// marshalCanonical re-encodes a decoded JSON value (maps, slices,
// json.Number, strings, bools, nil) with sorted map keys and compact
// separators at every nesting level.
func marshalCanonical(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		return marshalCanonicalObject(val)
	case []interface{}:
		return marshalCanonicalArray(val)
	default:
		return json.Marshal(val)
	}
}

func marshalCanonicalObject(m map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := marshalCanonical(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCanonicalArray(a []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, el := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		elJSON, err := marshalCanonical(el)
		if err != nil {
			return nil, err
		}
		buf.Write(elJSON)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
