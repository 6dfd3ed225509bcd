package relay

import (
	"bytes"
	"encoding/json"
)

type Field struct {
	Key   string
	Value string
}

// Body is a JSON object whose keys are written in slice order.
type Body []Field

// Set assigns key. An existing key keeps its position and takes the new
// value.
func (b Body) Set(key, value string) Body {
	for i := range b {
		if b[i].Key == key {
			b[i].Value = value
			return b
		}
	}
	return append(b, Field{Key: key, Value: value})
}

func (b Body) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
