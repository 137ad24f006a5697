package rsession

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer converts session values to and from the stored payload.
type Serializer interface {
	Marshal(values Values) ([]byte, error)
	Unmarshal(data []byte) (Values, error)
}

// JSONSerializer stores values as a JSON object.
type JSONSerializer struct{}

// Marshal encodes values as JSON object
func (JSONSerializer) Marshal(values Values) ([]byte, error) {
	if values == nil {
		values = Values{}
	}
	return json.Marshal(map[string]interface{}(values))
}

// Unmarshal decodes JSON object; empty payload decodes to empty values
func (JSONSerializer) Unmarshal(data []byte) (Values, error) {
	if len(data) == 0 {
		return Values{}, nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}
	if result == nil {
		return Values{}, nil
	}
	return Values(result), nil
}

type funcSerializer struct {
	marshal   func(values Values) ([]byte, error)
	unmarshal func(data []byte) (Values, error)
}

func (s *funcSerializer) Marshal(values Values) ([]byte, error) { return s.marshal(values) }
func (s *funcSerializer) Unmarshal(data []byte) (Values, error) { return s.unmarshal(data) }

// NewSerializer builds a Serializer from a serializer and unserializer function pair.
func NewSerializer(marshal func(values Values) ([]byte, error), unmarshal func(data []byte) (Values, error)) Serializer {
	return &funcSerializer{marshal: marshal, unmarshal: unmarshal}
}

// IdentifierMutator transforms every newly minted session id.
type IdentifierMutator interface {
	MutateID(id string) string
}

// IdentifierMutatorFunc adapts a function to IdentifierMutator.
type IdentifierMutatorFunc func(id string) string

// MutateID calls f.
func (f IdentifierMutatorFunc) MutateID(id string) string { return f(id) }

// IdentityMutator leaves ids unchanged.
var IdentityMutator IdentifierMutator = IdentifierMutatorFunc(func(id string) string { return id })
