package messaging

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "messaging.PatternService"
	SendMethod  = "/messaging.PatternService/Send"
)

var ErrMalformedRequest = errors.New("malformed pattern request")

// Pattern addresses a command on a peer service, e.g. {role: "user", cmd: "getById"}.
type Pattern struct {
	Role string
	Cmd  string
}

func (p Pattern) String() string {
	return p.Role + "." + p.Cmd
}

// NewRequest builds the wire envelope {"pattern": {...}, "data": {...}}.
func NewRequest(pattern Pattern, data map[string]interface{}) (*structpb.Struct, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	return structpb.NewStruct(map[string]interface{}{
		"pattern": map[string]interface{}{
			"role": pattern.Role,
			"cmd":  pattern.Cmd,
		},
		"data": data,
	})
}

// ParseRequest splits a wire envelope into its pattern and payload.
func ParseRequest(req *structpb.Struct) (Pattern, *structpb.Struct, error) {
	if req == nil {
		return Pattern{}, nil, ErrMalformedRequest
	}
	patternValue, ok := req.GetFields()["pattern"]
	if !ok || patternValue.GetStructValue() == nil {
		return Pattern{}, nil, fmt.Errorf("%w: missing pattern", ErrMalformedRequest)
	}
	fields := patternValue.GetStructValue().GetFields()
	pattern := Pattern{
		Role: fields["role"].GetStringValue(),
		Cmd:  fields["cmd"].GetStringValue(),
	}
	if pattern.Role == "" || pattern.Cmd == "" {
		return Pattern{}, nil, fmt.Errorf("%w: pattern requires role and cmd", ErrMalformedRequest)
	}

	data := req.GetFields()["data"].GetStructValue()
	if data == nil {
		data = &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}
	return pattern, data, nil
}

// IsNull reports whether a response value means "absent".
func IsNull(v *structpb.Value) bool {
	if v == nil || v.GetKind() == nil {
		return true
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return isNull
}

// Truthy mirrors how peers answer existence lookups: null, false, zero and empty
// values mean the entity is absent.
func Truthy(v *structpb.Value) bool {
	if IsNull(v) {
		return false
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue != 0
	case *structpb.Value_StringValue:
		return kind.StringValue != ""
	default:
		return true
	}
}
