package authtree

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Well-known shared state keys.
const (
	UsernameKey = "username"
	RealmKey    = "realm"
)

// ErrInvalidStateWrite is returned when a write carries an empty key, a nil
// value, or a value type shared state cannot hold.
var ErrInvalidStateWrite = errors.New("invalid shared state write")

// StateSink is the write-only view of shared state handed to projecting nodes.
type StateSink interface {
	PutShared(key string, value Value) error
}

// NodeState is the key/value state carried between nodes of one tree run.
type NodeState struct {
	mutex  sync.RWMutex
	values map[string]interface{}
}

// NewNodeState creates an empty state.
func NewNodeState() *NodeState {
	return &NodeState{values: make(map[string]interface{})}
}

// NewNodeStateFrom builds a state from initial values, validating each one.
func NewNodeStateFrom(initial map[string]interface{}) (*NodeState, error) {
	state := NewNodeState()
	for key, value := range initial {
		if err := state.Put(key, value); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Put upserts a value. Accepted types are string, []string, Value, bool,
// int, int64 and float64.
func (s *NodeState) Put(key string, value interface{}) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidStateWrite)
	}

	switch v := value.(type) {
	case nil:
		return fmt.Errorf("%w: nil value for key %q", ErrInvalidStateWrite, key)
	case Value:
		if v.IsZero() {
			return fmt.Errorf("%w: empty value for key %q", ErrInvalidStateWrite, key)
		}
	case []string:
		value = append([]string(nil), v...)
	case []interface{}:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: key %q holds a non-string list item %T", ErrInvalidStateWrite, key, item)
			}
			strs = append(strs, s)
		}
		value = strs
	case string, bool, int, int64, float64:
	default:
		return fmt.Errorf("%w: unsupported type %T for key %q", ErrInvalidStateWrite, value, key)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.values[key] = value
	return nil
}

// PutShared upserts a projected Value.
func (s *NodeState) PutShared(key string, value Value) error {
	return s.Put(key, value)
}

// Get returns the raw value stored under key.
func (s *NodeState) Get(key string) (interface{}, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// GetString returns the value under key when it is a string or a scalar Value.
func (s *NodeState) GetString(key string) (string, bool) {
	value, ok := s.Get(key)
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case Value:
		if v.IsScalar() {
			return v.Scalar(), true
		}
	}
	return "", false
}

// GetValue returns the value under key as a Value when it holds strings.
func (s *NodeState) GetValue(key string) (Value, bool) {
	value, ok := s.Get(key)
	if !ok {
		return Value{}, false
	}
	switch v := value.(type) {
	case Value:
		return v, true
	case string:
		return Scalar(v), true
	case []string:
		return Sequence(v...), true
	}
	return Value{}, false
}

// Has reports whether key is present.
func (s *NodeState) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the stored keys in sorted order.
func (s *NodeState) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (s *NodeState) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.values)
}

// AsMap returns a shallow copy with Values flattened to string or []string.
func (s *NodeState) AsMap() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make(map[string]interface{}, len(s.values))
	for key, value := range s.values {
		if v, ok := value.(Value); ok {
			out[key] = v.Interface()
			continue
		}
		out[key] = value
	}
	return out
}
