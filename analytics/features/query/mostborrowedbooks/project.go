package mostborrowedbooks

import (
	"sort"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// Project assembles the ranking from the grouped borrow counts and the
// batch-resolved books and users. This is a pure function with no side
// effects.
//
// Query Logic:
//
//	GIVEN: Borrow records grouped by book, with distinct borrower ids per group
//	WHEN: MostBorrowedBooks query is executed
//	THEN: Groups are ranked by borrow count descending
//	DROPS: Groups whose book cannot be resolved, and groups whose borrower
//	       set is empty after user resolution
func Project(groups recordstore.GroupCounts, books map[string]core.Book, users map[string]core.User) MostBorrowedBooks {
	rankings := make([]RankedBook, 0, len(groups))

	for _, group := range groups {
		book, bookResolved := books[group.Key]
		if !bookResolved {
			continue
		}

		borrowers := make([]core.User, 0, len(group.DistinctValues))
		for _, userID := range group.DistinctValues {
			if user, ok := users[userID]; ok {
				borrowers = append(borrowers, user)
			}
		}

		if len(borrowers) == 0 {
			continue
		}

		rankings = append(rankings, RankedBook{
			Book:        book,
			BorrowCount: group.Count,
			Users:       borrowers,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].BorrowCount > rankings[j].BorrowCount
	})

	return MostBorrowedBooks{
		Rankings: rankings,
		Count:    len(rankings),
	}
}

// BuildRecordFilter creates the filter selecting the borrow records of the
// query window, or every record when no bound is set.
func BuildRecordFilter(query Query) recordstore.Filter {
	if query.StartTime.IsZero() && query.EndTime.IsZero() {
		return recordstore.BuildRecordFilter().MatchingAnyRecord()
	}

	return recordstore.BuildRecordFilter().
		Matching().
		RangeOver(core.FieldBorrowDate).
		From(query.StartTime).
		Until(query.EndTime).
		Finalize()
}

// DistinctUserIDsOf collects the distinct borrower ids across all groups for
// one batched user lookup.
func DistinctUserIDsOf(groups recordstore.GroupCounts) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)

	for _, group := range groups {
		for _, userID := range group.DistinctValues {
			if _, ok := seen[userID]; ok {
				continue
			}

			seen[userID] = struct{}{}
			ids = append(ids, userID)
		}
	}

	return ids
}

// BookIDsOf collects the group keys for one batched book lookup.
func BookIDsOf(groups recordstore.GroupCounts) []string {
	ids := make([]string, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.Key)
	}

	return ids
}
