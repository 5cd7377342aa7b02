package recordstore

import (
	"slices"
	"time"
)

type FilterKeyString = string
type FilterValString = string

// FilterOperator selects how a FilterPredicate compares a payload field.
type FilterOperator int

const (
	// OperatorEquals matches documents whose field equals the value.
	OperatorEquals FilterOperator = iota

	// OperatorNotEquals matches documents whose field differs from the value.
	OperatorNotEquals

	// OperatorFieldPresent matches documents whose field is set and not null.
	OperatorFieldPresent

	// OperatorFieldAbsent matches documents whose field is missing or null.
	OperatorFieldAbsent
)

/***** Filter *****/

type Filter struct {
	items     []FilterItem
	timeRange TimeRange
}

func (f Filter) Items() []FilterItem {
	return f.items
}

func (f Filter) TimeRange() TimeRange {
	return f.timeRange
}

/***** TimeRange *****/

// TimeRange restricts documents to those whose named timestamp field lies
// inside [from, until] (both bounds inclusive, a zero bound is open).
type TimeRange struct {
	field FilterKeyString
	from  time.Time
	until time.Time
}

func (tr TimeRange) Field() FilterKeyString {
	return tr.field
}

func (tr TimeRange) From() time.Time {
	return tr.from
}

func (tr TimeRange) Until() time.Time {
	return tr.until
}

// IsZero reports whether no time-range clause was configured.
func (tr TimeRange) IsZero() bool {
	return tr.field == ""
}

/***** FilterItem *****/

type FilterItem struct {
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
	op  FilterOperator
}

// P builds an equality predicate on a payload field.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val, op: OperatorEquals}
}

// NotP builds an inequality predicate on a payload field.
func NotP(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val, op: OperatorNotEquals}
}

// FieldPresent builds a predicate matching documents where the field is set and not null.
func FieldPresent(key FilterKeyString) FilterPredicate {
	return FilterPredicate{key: key, val: presenceMarkerVal, op: OperatorFieldPresent}
}

// FieldAbsent builds a predicate matching documents where the field is missing or null.
func FieldAbsent(key FilterKeyString) FilterPredicate {
	return FilterPredicate{key: key, val: presenceMarkerVal, op: OperatorFieldAbsent}
}

// presenceMarkerVal keeps presence/absence predicates from being dropped by the
// empty-value sanitization which only applies to (in)equality predicates.
const presenceMarkerVal = "\x00"

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

func (fp FilterPredicate) Operator() FilterOperator {
	return fp.op
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic document filter to be used in DB type-specific
// record store engines to build queries for the specific query language,
// e.g.: Postgres, MongoDB, ...
// It is designed with the idea to only allow "useful" filter combinations for
// the read paths of this engine:
//
//   - empty filter (a whole collection)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - ((predicate...) OR (predicate...)) -> multiple FilterItem(s)
//   - any of the above AND a time range over one timestamp field
//   - a time range alone
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyRecord directly creates an empty Filter.
	MatchingAnyRecord() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ANY predicate to match.
	//
	// It sanitizes the input:
	//	- removing empty/partial (in)equality FilterPredicate(s) (key or val is "")
	//	- sorting the FilterPredicate(s)
	//	- removing duplicate FilterPredicate(s)
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// AllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ALL predicates to match. Sanitizes like AnyPredicateOf.
	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// RangeOver starts a time-range clause over the given timestamp field,
	// discarding the empty FilterItem that was started.
	RangeOver(field FilterKeyString) RangedFilterBuilder
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// RangeOver finalizes the current FilterItem and starts a time-range clause
	// over the given timestamp field.
	RangeOver(field FilterKeyString) RangedFilterBuilder

	// Finalize returns the Filter once it has at least one FilterItem with at
	// least one predicate.
	Finalize() Filter
}

type RangedFilterBuilder interface {
	// From sets the inclusive lower bound of the time range.
	From(t time.Time) RangedFilterBuilder

	// Until sets the inclusive upper bound of the time range.
	Until(t time.Time) RangedFilterBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder.
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
	itemStarted       bool
}

// BuildRecordFilter creates a FilterBuilder which must eventually be finalized
// with Finalize() or MatchingAnyRecord().
func BuildRecordFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}
	fb.itemStarted = false

	return fb
}

// MatchingAnyRecord directly creates an empty filter.
func (fb filterBuilder) MatchingAnyRecord() Filter {
	return fb.filter
}

// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem,
// expecting ANY predicate to match.
func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)
	fb.itemStarted = true

	return fb
}

// AllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem,
// expecting ALL predicates to match.
func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.allPredicatesMustMatch = true

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)
	fb.itemStarted = true

	return fb
}

func (fb filterBuilder) sanitizePredicates(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) []FilterPredicate {

	allPredicates := append([]FilterPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(
		allPredicates,
		func(p FilterPredicate) bool { return len(p.key) == 0 || len(p.val) == 0 })

	slices.SortFunc(
		allPredicates,
		func(a, b FilterPredicate) int {
			if a.key > b.key {
				return 1
			}

			if a.key < b.key {
				return -1
			}

			return 0
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(fb.filter.items, fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}
	fb.itemStarted = false

	return fb
}

// RangeOver finalizes the current FilterItem (if it holds predicates) and
// starts a time-range clause over the given timestamp field.
func (fb filterBuilder) RangeOver(field FilterKeyString) RangedFilterBuilder {
	if fb.itemStarted {
		fb.filter.items = append(fb.filter.items, fb.currentFilterItem)
		fb.currentFilterItem = FilterItem{}
		fb.itemStarted = false
	}

	fb.filter.timeRange.field = field

	return fb
}

// From sets the inclusive lower bound of the time range.
func (fb filterBuilder) From(t time.Time) RangedFilterBuilder {
	fb.filter.timeRange.from = t

	return fb
}

// Until sets the inclusive upper bound of the time range.
func (fb filterBuilder) Until(t time.Time) RangedFilterBuilder {
	fb.filter.timeRange.until = t

	return fb
}

// Finalize returns the Filter once it has at least one FilterItem with at least
// one predicate, or a time-range clause.
func (fb filterBuilder) Finalize() Filter {
	if fb.itemStarted {
		fb.filter.items = append(fb.filter.items, fb.currentFilterItem)
	}

	return fb.filter
}
