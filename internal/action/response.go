package action

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

// Result is the wire tag of a response.
type Result string

const (
	ResultNone     Result = "none"
	ResultEntity   Result = "entity"
	ResultVector   Result = "vector"
	ResultText     Result = "text"
	ResultTexts    Result = "texts"
	ResultEntities Result = "entities"
	ResultVectors  Result = "vectors"
	ResultError    Result = "error"
)

// Response is the single reply to one action. Only the field matching
// Result is meaningful.
type Response struct {
	Result   Result
	Entity   ecs.EntityID
	Vector   component.Vec3
	Text     string
	Texts    []string
	Entities []ecs.EntityID
	Vectors  []component.Vec3
	Err      *Error
}

func None() Response                        { return Response{Result: ResultNone} }
func EntityResult(id ecs.EntityID) Response { return Response{Result: ResultEntity, Entity: id} }
func VectorResult(v component.Vec3) Response {
	return Response{Result: ResultVector, Vector: v}
}
func TextResult(s string) Response { return Response{Result: ResultText, Text: s} }
func TextsResult(s []string) Response {
	if s == nil {
		s = []string{}
	}
	return Response{Result: ResultTexts, Texts: s}
}
func EntitiesResult(ids []ecs.EntityID) Response {
	if ids == nil {
		ids = []ecs.EntityID{}
	}
	return Response{Result: ResultEntities, Entities: ids}
}
func VectorsResult(vs []component.Vec3) Response {
	if vs == nil {
		vs = []component.Vec3{}
	}
	return Response{Result: ResultVectors, Vectors: vs}
}

// Failure wraps err as an error response.
func Failure(err error) Response {
	return Response{Result: ResultError, Err: &Error{Kind: KindOf(err), Message: err.Error()}}
}

// Error returns the carried error, or nil for a successful response.
func (r Response) Error() error {
	if r.Result != ResultError || r.Err == nil {
		return nil
	}
	return r.Err
}

type wireResponse struct {
	Result   Result         `json:"result"`
	Entity   *ecs.EntityID  `json:"entity,omitempty"`
	Vector   *Vector        `json:"vector,omitempty"`
	Text     *string        `json:"text,omitempty"`
	Texts    []string       `json:"texts,omitempty"`
	Entities []ecs.EntityID `json:"entities,omitempty"`
	Vectors  []Vector       `json:"vectors,omitempty"`
	Error    *Error         `json:"error,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{Result: r.Result}
	switch r.Result {
	case ResultNone:
	case ResultEntity:
		w.Entity = &r.Entity
	case ResultVector:
		v := Vector(r.Vector)
		w.Vector = &v
	case ResultText:
		w.Text = &r.Text
	case ResultTexts:
		// a non-nil empty slice still drops under omitempty, so emit explicitly
		if len(r.Texts) == 0 {
			return []byte(`{"result":"texts","texts":[]}`), nil
		}
		w.Texts = r.Texts
	case ResultEntities:
		if len(r.Entities) == 0 {
			return []byte(`{"result":"entities","entities":[]}`), nil
		}
		w.Entities = r.Entities
	case ResultVectors:
		if len(r.Vectors) == 0 {
			return []byte(`{"result":"vectors","vectors":[]}`), nil
		}
		w.Vectors = make([]Vector, len(r.Vectors))
		for i, v := range r.Vectors {
			w.Vectors[i] = Vector(v)
		}
	case ResultError:
		w.Error = r.Err
	default:
		return nil, fmt.Errorf("marshal response: unknown result %q", r.Result)
	}
	return json.Marshal(w)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Response{Result: w.Result, Texts: w.Texts, Entities: w.Entities, Err: w.Error}
	if w.Entity != nil {
		r.Entity = *w.Entity
	}
	if w.Vector != nil {
		r.Vector = w.Vector.Vec3()
	}
	if w.Text != nil {
		r.Text = *w.Text
	}
	for _, v := range w.Vectors {
		r.Vectors = append(r.Vectors, v.Vec3())
	}
	switch r.Result {
	case ResultTexts:
		if r.Texts == nil {
			r.Texts = []string{}
		}
	case ResultEntities:
		if r.Entities == nil {
			r.Entities = []ecs.EntityID{}
		}
	case ResultVectors:
		if r.Vectors == nil {
			r.Vectors = []component.Vec3{}
		}
	}
	return nil
}
