package action

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
)

// decoder parses one action kind. required lists the keys that must be
// present; a zero handle is indistinguishable from a missing one otherwise.
type decoder struct {
	decode   func(raw []byte) (Action, error)
	required []string
}

func decodeAs[A Action](raw []byte) (Action, error) {
	var a A
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return a, nil
}

var decoders = map[Kind]decoder{
	KindDestroy:                    {decodeAs[Destroy], []string{"entity"}},
	KindSetTarget:                  {decodeAs[SetTarget], []string{"entity", "translation", "duration"}},
	KindSetParent:                  {decodeAs[SetParent], []string{"parent", "child"}},
	KindGetPosition:                {decodeAs[GetPosition], []string{"entity"}},
	KindGetValue:                   {decodeAs[GetValue], []string{"entity"}},
	KindCreateArray:                {decodeAs[CreateArray], []string{"values"}},
	KindInsertToArray:              {decodeAs[InsertToArray], []string{"array", "index", "value"}},
	KindSwapInArray:                {decodeAs[SwapInArray], []string{"array", "i", "j"}},
	KindPopFromArray:               {decodeAs[PopFromArray], []string{"array", "index"}},
	KindSetInArray:                 {decodeAs[SetInArray], []string{"array", "index", "value"}},
	KindGetArrayContents:           {decodeAs[GetArrayContents], []string{"array"}},
	KindGetArrayContentEntities:    {decodeAs[GetArrayContentEntities], []string{"array"}},
	KindGetArrayContentCoordinates: {decodeAs[GetArrayContentCoordinates], []string{"array"}},
	KindClear:                      {decodeAs[Clear], nil},
	KindCreateArrayFromSlice:       {decodeAs[CreateArrayFromSlice], []string{"array", "begin", "end"}},
}

// Kinds lists every action kind the decoder understands.
func Kinds() []Kind {
	out := make([]Kind, 0, len(decoders))
	for k := range decoders {
		out = append(out, k)
	}
	return out
}

// Decode parses one JSON request of the form {"action": "<Kind>", ...}.
// Every failure wraps ErrProtocol.
func Decode(raw []byte) (Action, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	tag, ok := fields["action"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"action\"", ErrProtocol)
	}
	var kind Kind
	if err := json.Unmarshal(tag, &kind); err != nil {
		return nil, fmt.Errorf("%w: action tag: %v", ErrProtocol, err)
	}
	d, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrProtocol, kind)
	}
	for _, key := range d.required {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: %s: missing %q", ErrProtocol, kind, key)
		}
	}
	a, err := d.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProtocol, kind, err)
	}
	return Normalize(a), nil
}

// Normalize brings cell text to NFC so equal-looking values compare equal.
func Normalize(a Action) Action {
	switch v := a.(type) {
	case CreateArray:
		values := make([]string, len(v.Values))
		for i, s := range v.Values {
			values[i] = norm.NFC.String(s)
		}
		v.Values = values
		return v
	case InsertToArray:
		v.Value = norm.NFC.String(v.Value)
		return v
	case SetInArray:
		v.Value = norm.NFC.String(v.Value)
		return v
	}
	return a
}

// Encode renders a as a tagged JSON object that Decode accepts.
func Encode(a Action) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	tag, err := json.Marshal(a.Kind())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 12)
	buf.WriteString(`{"action":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float32{v.X, v.Y, v.Z})
}

func (v *Vector) UnmarshalJSON(data []byte) error {
	var xs []float32
	if err := json.Unmarshal(data, &xs); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	switch len(xs) {
	case 2:
		*v = Vector{X: xs[0], Y: xs[1]}
	case 3:
		*v = Vector{X: xs[0], Y: xs[1], Z: xs[2]}
	default:
		return fmt.Errorf("vector: want 2 or 3 components, got %d", len(xs))
	}
	return nil
}
