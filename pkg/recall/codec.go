package recall

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Operation names used in MalformedResponseError.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationUpdate = "update"
)

// DecodeCollection parses a list response body. The body must be a JSON
// array of objects, each with a unique non-empty id. Numbers keep their
// exact decimal text.
func DecodeCollection(data []byte) (Collection, error) {
	value, err := decode(data)
	if err != nil {
		return nil, &MalformedResponseError{Operation: OperationList, Reason: "invalid JSON", Err: err}
	}

	items, ok := value.([]interface{})
	if !ok {
		return nil, &MalformedResponseError{
			Operation: OperationList,
			Reason:    fmt.Sprintf("expected a JSON array, got %s", jsonKind(value)),
		}
	}

	collection := make(Collection, 0, len(items))

	for index, item := range items {
		object, ok := item.(map[string]interface{})
		if !ok {
			return nil, &MalformedResponseError{
				Operation: OperationList,
				Reason:    fmt.Sprintf("element %d is %s, not an object", index, jsonKind(item)),
			}
		}

		collection = append(collection, Record(object))
	}

	err = collection.Validate()
	if err != nil {
		return nil, &MalformedResponseError{Operation: OperationList, Reason: "invalid record", Err: err}
	}

	return collection, nil
}

// DecodeRecord parses a single-record body for operation. The body must be a
// JSON object with a non-empty id.
func DecodeRecord(operation string, data []byte) (Record, error) {
	value, err := decode(data)
	if err != nil {
		return nil, &MalformedResponseError{Operation: operation, Reason: "invalid JSON", Err: err}
	}

	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, &MalformedResponseError{
			Operation: operation,
			Reason:    fmt.Sprintf("expected a JSON object, got %s", jsonKind(value)),
		}
	}

	record := Record(object)

	err = record.Validate()
	if err != nil {
		return nil, &MalformedResponseError{Operation: operation, Reason: "invalid record", Err: err}
	}

	return record, nil
}

func decode(data []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}

	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	err = decoder.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return value, nil
}

func jsonKind(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", value)
	}
}
