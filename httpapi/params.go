package httpapi

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/roamdb/roamdb/store"
)

// Query parameters are optional, but a parameter that is present must
// parse; a malformed value fails the whole request.

func int64Param(q url.Values, key string) (*int64, error) {
	if !q.Has(key) {
		return nil, nil
	}
	v, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return &v, nil
}

func intParam(q url.Values, key string) (*int, error) {
	if !q.Has(key) {
		return nil, nil
	}
	v, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return &v, nil
}

func uint32Param(q url.Values, key string) (*uint32, error) {
	if !q.Has(key) {
		return nil, nil
	}
	v, err := strconv.ParseUint(q.Get(key), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	u := uint32(v)
	return &u, nil
}

func visitFilterFromQuery(q url.Values) (store.VisitFilter, error) {
	var f store.VisitFilter
	var err error

	if f.FromDate, err = int64Param(q, "fromDate"); err != nil {
		return store.VisitFilter{}, err
	}
	if f.ToDate, err = int64Param(q, "toDate"); err != nil {
		return store.VisitFilter{}, err
	}
	if q.Has("country") {
		country := q.Get("country")
		f.Country = &country
	}
	if f.ToDistance, err = uint32Param(q, "toDistance"); err != nil {
		return store.VisitFilter{}, err
	}
	return f, nil
}

func avgFilterFromQuery(q url.Values) (store.AvgFilter, error) {
	var f store.AvgFilter
	var err error

	if f.FromDate, err = int64Param(q, "fromDate"); err != nil {
		return store.AvgFilter{}, err
	}
	if f.ToDate, err = int64Param(q, "toDate"); err != nil {
		return store.AvgFilter{}, err
	}
	if f.FromAge, err = intParam(q, "fromAge"); err != nil {
		return store.AvgFilter{}, err
	}
	if f.ToAge, err = intParam(q, "toAge"); err != nil {
		return store.AvgFilter{}, err
	}
	if q.Has("gender") {
		gender := q.Get("gender")
		if gender != "m" && gender != "f" {
			return store.AvgFilter{}, fmt.Errorf("parameter gender: must be m or f")
		}
		f.Gender = &gender
	}
	return f, nil
}
