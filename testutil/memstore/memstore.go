// Package memstore provides an in-memory implementation of the record store
// read contract for hermetic tests. It evaluates filters the same way the
// database engines do: equality on string payload fields, presence checks,
// and lexicographic time-range comparison over the canonical stored
// timestamp form.
package memstore

import (
	"context"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

type storedDocument struct {
	document recordstore.StorableDocument
	fields   map[string]any
}

// Store is an in-memory document store, safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]storedDocument
	failWith    error
}

// New creates an empty Store.
func New() *Store {
	return &Store{collections: make(map[string][]storedDocument)}
}

// Insert adds documents to the store, preserving insertion order.
func (s *Store) Insert(_ context.Context, documents ...recordstore.StorableDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, document := range documents {
		fields := make(map[string]any)
		if err := jsoniter.Unmarshal(document.PayloadJSON, &fields); err != nil {
			return err
		}

		s.collections[document.Collection] = append(s.collections[document.Collection], storedDocument{
			document: document,
			fields:   fields,
		})
	}

	return nil
}

// FailWith makes every subsequent read fail with the given error.
// Passing nil restores normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWith = err
}

// GetByID implements the read contract.
func (s *Store) GetByID(ctx context.Context, collection string, id string) (
	recordstore.StorableDocument,
	bool,
	error,
) {

	var empty recordstore.StorableDocument

	if err := s.readErr(ctx); err != nil {
		return empty, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stored := range s.collections[collection] {
		if stored.document.ID == id {
			return stored.document, true, nil
		}
	}

	return empty, false, nil
}

// Find implements the read contract.
func (s *Store) Find(ctx context.Context, collection string, filter recordstore.Filter) (
	recordstore.StorableDocuments,
	error,
) {

	if err := s.readErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	documents := make(recordstore.StorableDocuments, 0)

	for _, stored := range s.collections[collection] {
		if matchesFilter(stored.fields, filter) {
			documents = append(documents, stored.document)
		}
	}

	return documents, nil
}

// FindDistinct implements the read contract.
func (s *Store) FindDistinct(ctx context.Context, collection string, field string, filter recordstore.Filter) (
	[]string,
	error,
) {

	if err := s.readErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	values := make([]string, 0)

	for _, stored := range s.collections[collection] {
		if !matchesFilter(stored.fields, filter) {
			continue
		}

		value, ok := stringField(stored.fields, field)
		if !ok {
			continue
		}

		if _, dup := seen[value]; dup {
			continue
		}

		seen[value] = struct{}{}
		values = append(values, value)
	}

	return values, nil
}

// AggregateGroupCount implements the read contract.
func (s *Store) AggregateGroupCount(
	ctx context.Context,
	collection string,
	groupField string,
	distinctField string,
	filter recordstore.Filter,
) (recordstore.GroupCounts, error) {

	if err := s.readErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make([]string, 0)
	counts := make(map[string]int)
	distinct := make(map[string][]string)
	distinctSeen := make(map[string]map[string]struct{})

	for _, stored := range s.collections[collection] {
		if !matchesFilter(stored.fields, filter) {
			continue
		}

		key, ok := stringField(stored.fields, groupField)
		if !ok {
			continue
		}

		if _, known := counts[key]; !known {
			order = append(order, key)
			distinctSeen[key] = make(map[string]struct{})
		}

		counts[key]++

		if value, hasValue := stringField(stored.fields, distinctField); hasValue {
			if _, dup := distinctSeen[key][value]; !dup {
				distinctSeen[key][value] = struct{}{}
				distinct[key] = append(distinct[key], value)
			}
		}
	}

	groups := make(recordstore.GroupCounts, 0, len(order))
	for _, key := range order {
		groups = append(groups, recordstore.GroupCount{
			Key:            key,
			Count:          counts[key],
			DistinctValues: distinct[key],
		})
	}

	return groups, nil
}

func (s *Store) readErr(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.failWith
}

/*** filter evaluation ***/

func matchesFilter(fields map[string]any, filter recordstore.Filter) bool {
	items := filter.Items()

	if len(items) > 0 {
		anyItemMatches := false

		for _, item := range items {
			if matchesItem(fields, item) {
				anyItemMatches = true
				break
			}
		}

		if !anyItemMatches {
			return false
		}
	}

	return matchesTimeRange(fields, filter.TimeRange())
}

func matchesItem(fields map[string]any, item recordstore.FilterItem) bool {
	if item.AllPredicatesMustMatch() {
		for _, predicate := range item.Predicates() {
			if !matchesPredicate(fields, predicate) {
				return false
			}
		}

		return true
	}

	for _, predicate := range item.Predicates() {
		if matchesPredicate(fields, predicate) {
			return true
		}
	}

	return false
}

func matchesPredicate(fields map[string]any, predicate recordstore.FilterPredicate) bool {
	value, present := stringField(fields, predicate.Key())

	switch predicate.Operator() {
	case recordstore.OperatorFieldPresent:
		_, rawPresent := fields[predicate.Key()]
		return rawPresent

	case recordstore.OperatorFieldAbsent:
		_, rawPresent := fields[predicate.Key()]
		return !rawPresent

	case recordstore.OperatorNotEquals:
		return !present || value != predicate.Val()

	default:
		return present && value == predicate.Val()
	}
}

func matchesTimeRange(fields map[string]any, timeRange recordstore.TimeRange) bool {
	if timeRange.IsZero() {
		return true
	}

	value, present := stringField(fields, timeRange.Field())
	if !present {
		return false
	}

	if !timeRange.From().IsZero() {
		if strings.Compare(value, recordstore.ToStoredTime(timeRange.From())) < 0 {
			return false
		}
	}

	if !timeRange.Until().IsZero() {
		if strings.Compare(value, recordstore.ToStoredTime(timeRange.Until())) > 0 {
			return false
		}
	}

	return true
}

func stringField(fields map[string]any, key string) (string, bool) {
	raw, present := fields[key]
	if !present {
		return "", false
	}

	value, isString := raw.(string)

	return value, isString
}
