package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/SaiNageswarS/analytics-agent/schema"
)

var ErrKeyMissing = errors.New("state key missing")

// Store is the per-session key/value context threaded through every stage.
// One pipeline run writes it at a time; readers may snapshot it concurrently.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

func New() *Store {
	return &Store{values: map[string]any{}}
}

// NewInitial returns a store seeded with the defaults a fresh session starts with.
func NewInitial() *Store {
	s := New()
	s.values[KeyQueryParams] = map[string]any{}
	s.values[KeyRetrievedContent] = ""
	s.values[KeyChartObjects] = []any{}
	s.values[KeyQueryResponse] = ""
	return s
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Snapshot returns a shallow copy of the current state.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Text renders the value under key as text. Strings are returned verbatim and
// structured values are JSON-encoded. ok is false when the key was never written.
func (s *Store) Text(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}

	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case []byte:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}
		return string(data), true
	}
}

func (s *Store) UserQuery() string {
	text, _ := s.Text(KeyUserQuery)
	return text
}

// QueryParamsRaw returns the raw query_key_params payload as written by the query stage.
func (s *Store) QueryParamsRaw() (string, bool) {
	return s.Text(KeyQueryParams)
}

// QueryParams decodes query_key_params, stripping the optional fence.
func (s *Store) QueryParams() (*schema.QueryKeyParams, error) {
	raw, ok := s.QueryParamsRaw()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, KeyQueryParams)
	}

	params := &schema.QueryKeyParams{}
	if err := schema.DecodeFenced(raw, params); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *Store) RetrievedContent() string {
	text, _ := s.Text(KeyRetrievedContent)
	return text
}

func (s *Store) ChartObjects() string {
	text, _ := s.Text(KeyChartObjects)
	return text
}

// Charts decodes chart_objects, degrading to nil on any problem.
func (s *Store) Charts() []schema.ChartSpec {
	return schema.ParseCharts(s.ChartObjects())
}

func (s *Store) QueryResponse() string {
	text, _ := s.Text(KeyQueryResponse)
	return text
}
