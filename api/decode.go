package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// fieldConverter decodes one JSON field into its slot on target.
type fieldConverter[T any] func(target *T, raw json.RawMessage) error

type converterTable[T any] map[string]fieldConverter[T]

// decodeWith applies table to every field of the object in raw. Fields the
// table does not name are returned as the extra map. Null values leave the
// target field untouched.
func decodeWith[T any](raw json.RawMessage, table converterTable[T], target *T) (map[string]any, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("api: expected a JSON object: %w", err)
	}
	var extra map[string]any
	for name, value := range fields {
		if convert, ok := table[name]; ok {
			if isNull(value) {
				continue
			}
			if err := convert(target, value); err != nil {
				return nil, fmt.Errorf("api: field %q: %w", name, err)
			}
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return nil, fmt.Errorf("api: field %q: %w", name, err)
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[name] = decoded
	}
	return extra, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringField[T any](slot func(*T) *string) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		return json.Unmarshal(raw, slot(target))
	}
}

func boolField[T any](slot func(*T) *bool) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		return json.Unmarshal(raw, slot(target))
	}
}

func int64Field[T any](slot func(*T) *int64) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		value, err := decodeInt64(raw)
		if err != nil {
			return err
		}
		*slot(target) = value
		return nil
	}
}

func intField[T any](slot func(*T) *int) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		value, err := decodeInt64(raw)
		if err != nil {
			return err
		}
		*slot(target) = int(value)
		return nil
	}
}

func timestampField[T any](slot func(*T) *Timestamp) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		value, err := decodeInt64(raw)
		if err != nil {
			return err
		}
		*slot(target) = Timestamp(value)
		return nil
	}
}

func stringListField[T any](slot func(*T) *[]string) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		return json.Unmarshal(raw, slot(target))
	}
}

func entityField[T any, E any](slot func(*T) **E, decode func(json.RawMessage) (*E, error)) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		entity, err := decode(raw)
		if err != nil {
			return err
		}
		*slot(target) = entity
		return nil
	}
}

func entityListField[T any, E any](slot func(*T) *[]E, decode func(json.RawMessage) (*E, error)) fieldConverter[T] {
	return func(target *T, raw json.RawMessage) error {
		items, err := decodeList(raw, decode)
		if err != nil {
			return err
		}
		*slot(target) = items
		return nil
	}
}

func decodeList[E any](raw json.RawMessage, decode func(json.RawMessage) (*E, error)) ([]E, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("api: expected a JSON array: %w", err)
	}
	out := make([]E, 0, len(items))
	for i, item := range items {
		entity, err := decode(item)
		if err != nil {
			return nil, fmt.Errorf("api: item %d: %w", i, err)
		}
		out = append(out, *entity)
	}
	return out, nil
}

// decodeInt64 accepts a JSON number or a numeric string.
func decodeInt64(raw json.RawMessage) (int64, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return 0, err
	}
	switch typed := value.(type) {
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed, nil
		}
		parsed, err := typed.Float64()
		if err != nil {
			return 0, err
		}
		return int64(parsed), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}
