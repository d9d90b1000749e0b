package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// avgPrecision is the decimal digit count LocationAvg rounds to.
const avgPrecision = 5

// VisitFilter narrows a user's visit history. Nil fields match everything.
// Both date bounds are exclusive, as is the distance ceiling; country is an
// exact match against the visited location.
type VisitFilter struct {
	FromDate   *int64
	ToDate     *int64
	Country    *string
	ToDistance *uint32
}

// AvgFilter narrows the visit subset a location's average is computed over.
// Nil fields match everything. Date bounds are exclusive; gender is an exact
// match; age bounds are whole years, translated to birth-timestamp cutoffs
// against the store's fixed reference time.
type AvgFilter struct {
	FromDate *int64
	ToDate   *int64
	FromAge  *int
	ToAge    *int
	Gender   *string
}

// UserVisits lists a user's visits matching the filter, ascending by visit
// time. The user must exist; a user with no matching visits yields an empty
// result, not an error. The bucket is walked in stored order; it is already
// sorted, so no re-sort happens here.
func (s *Store) UserVisits(userID uint32, filter VisitFilter) (UserVisits, error) {
	result := UserVisits{Visits: []UserVisit{}}
	err := s.read(func() error {
		if _, ok := s.users[userID]; !ok {
			return ErrNotFound
		}
		for _, entry := range s.index.userBucket(userID) {
			v, ok := s.visits[entry.visitID]
			if !ok {
				return s.inconsistent("user bucket references missing visit",
					"visit", entry.visitID, "user", userID)
			}
			l, ok := s.locations[v.LocationID]
			if !ok {
				return s.inconsistent("visit references missing location",
					"visit", v.ID, "location", v.LocationID)
			}
			if filter.FromDate != nil && v.VisitedAt <= *filter.FromDate {
				continue
			}
			if filter.ToDate != nil && v.VisitedAt >= *filter.ToDate {
				continue
			}
			if filter.Country != nil && l.Country != *filter.Country {
				continue
			}
			if filter.ToDistance != nil && l.Distance >= *filter.ToDistance {
				continue
			}
			result.Visits = append(result.Visits, UserVisit{
				Mark:      v.Mark,
				VisitedAt: v.VisitedAt,
				Place:     l.Place,
			})
		}
		return nil
	})
	if err != nil {
		return UserVisits{}, err
	}
	return result, nil
}

// LocationAvg computes the average mark over the location's visits matching
// the filter. The location must exist; zero matching visits yields Avg 0.0.
// The mean is rounded to five decimal digits, half away from zero.
func (s *Store) LocationAvg(locationID uint32, filter AvgFilter) (LocationAvg, error) {
	var sum, count int64
	err := s.read(func() error {
		if _, ok := s.locations[locationID]; !ok {
			return ErrNotFound
		}

		// A minimum age of N admits only users born strictly before the
		// cutoff (anyone not yet N is out); a maximum age works the same
		// way from the other side.
		var bornBefore, bornAfter *int64
		if filter.FromAge != nil {
			cutoff := shiftYearsBack(s.config.Now, *filter.FromAge)
			bornBefore = &cutoff
		}
		if filter.ToAge != nil {
			cutoff := shiftYearsBack(s.config.Now, *filter.ToAge)
			bornAfter = &cutoff
		}

		for _, visitID := range s.index.locationBucket(locationID) {
			v, ok := s.visits[visitID]
			if !ok {
				return s.inconsistent("location bucket references missing visit",
					"visit", visitID, "location", locationID)
			}
			u, ok := s.users[v.UserID]
			if !ok {
				return s.inconsistent("visit references missing user",
					"visit", v.ID, "user", v.UserID)
			}
			if filter.FromDate != nil && v.VisitedAt <= *filter.FromDate {
				continue
			}
			if filter.ToDate != nil && v.VisitedAt >= *filter.ToDate {
				continue
			}
			if filter.Gender != nil && u.Gender != *filter.Gender {
				continue
			}
			if bornBefore != nil && u.BirthDate >= *bornBefore {
				continue
			}
			if bornAfter != nil && u.BirthDate <= *bornAfter {
				continue
			}
			sum += int64(v.Mark)
			count++
		}
		return nil
	})
	if err != nil {
		return LocationAvg{}, err
	}
	if count == 0 {
		return LocationAvg{}, nil
	}
	avg, _ := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(count)).
		Round(avgPrecision).
		Float64()
	return LocationAvg{Avg: avg}, nil
}

// shiftYearsBack moves t back n years keeping month and day. A Feb 29
// reference shifted to a non-leap year normalizes to Mar 1.
func shiftYearsBack(t time.Time, n int) int64 {
	return time.Date(t.Year()-n, t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).Unix()
}
