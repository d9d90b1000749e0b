package httpapi

import (
	"fmt"
	"math"

	"github.com/buger/jsonparser"

	"github.com/roamdb/roamdb/store"
)

// Bodies are decoded key by key so an explicit JSON null is distinguishable
// from an omitted field. Null has no valid interpretation for any current
// field type and is rejected here, before the store is involved; unknown
// keys are ignored. Creates require every field present.

func stringValue(value []byte, dt jsonparser.ValueType, field string) (string, error) {
	if dt != jsonparser.String {
		return "", fmt.Errorf("field %s: expected string, got %s", field, dt)
	}
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", field, err)
	}
	return s, nil
}

func intValue(value []byte, dt jsonparser.ValueType, field string) (int64, error) {
	if dt != jsonparser.Number {
		return 0, fmt.Errorf("field %s: expected number, got %s", field, dt)
	}
	n, err := jsonparser.ParseInt(value)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return n, nil
}

// uint32Value decodes an id or distance: non-negative and within 32 bits.
func uint32Value(value []byte, dt jsonparser.ValueType, field string) (uint32, error) {
	n, err := intValue(value, dt, field)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("field %s: %d out of range", field, n)
	}
	return uint32(n), nil
}

// markValue range-checks before the uint8 narrowing so an oversized number
// cannot wrap into a valid mark.
func markValue(value []byte, dt jsonparser.ValueType) (uint8, error) {
	n, err := intValue(value, dt, "mark")
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint8 {
		return 0, fmt.Errorf("field mark: %d out of range", n)
	}
	return uint8(n), nil
}

func decodeUser(body []byte) (store.User, error) {
	var u store.User
	var haveID, haveEmail, haveFirstName, haveLastName, haveGender, haveBirthDate bool
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "id":
			u.ID, fieldErr = uint32Value(value, dt, "id")
			haveID = fieldErr == nil
		case "email":
			u.Email, fieldErr = stringValue(value, dt, "email")
			haveEmail = fieldErr == nil
		case "first_name":
			u.FirstName, fieldErr = stringValue(value, dt, "first_name")
			haveFirstName = fieldErr == nil
		case "last_name":
			u.LastName, fieldErr = stringValue(value, dt, "last_name")
			haveLastName = fieldErr == nil
		case "gender":
			u.Gender, fieldErr = stringValue(value, dt, "gender")
			haveGender = fieldErr == nil
		case "birth_date":
			u.BirthDate, fieldErr = intValue(value, dt, "birth_date")
			haveBirthDate = fieldErr == nil
		}
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	if fieldErr != nil {
		return store.User{}, fieldErr
	}
	if !haveID || !haveEmail || !haveFirstName || !haveLastName || !haveGender || !haveBirthDate {
		return store.User{}, fmt.Errorf("user document is missing required fields")
	}
	return u, nil
}

func decodeUserPatch(body []byte) (store.UserPatch, error) {
	var p store.UserPatch
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "email":
			var v string
			if v, fieldErr = stringValue(value, dt, "email"); fieldErr == nil {
				p.Email = &v
			}
		case "first_name":
			var v string
			if v, fieldErr = stringValue(value, dt, "first_name"); fieldErr == nil {
				p.FirstName = &v
			}
		case "last_name":
			var v string
			if v, fieldErr = stringValue(value, dt, "last_name"); fieldErr == nil {
				p.LastName = &v
			}
		case "gender":
			var v string
			if v, fieldErr = stringValue(value, dt, "gender"); fieldErr == nil {
				p.Gender = &v
			}
		case "birth_date":
			var v int64
			if v, fieldErr = intValue(value, dt, "birth_date"); fieldErr == nil {
				p.BirthDate = &v
			}
		}
		return nil
	})
	if err != nil {
		return store.UserPatch{}, err
	}
	if fieldErr != nil {
		return store.UserPatch{}, fieldErr
	}
	return p, nil
}

func decodeLocation(body []byte) (store.Location, error) {
	var l store.Location
	var haveID, havePlace, haveCountry, haveCity, haveDistance bool
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "id":
			l.ID, fieldErr = uint32Value(value, dt, "id")
			haveID = fieldErr == nil
		case "place":
			l.Place, fieldErr = stringValue(value, dt, "place")
			havePlace = fieldErr == nil
		case "country":
			l.Country, fieldErr = stringValue(value, dt, "country")
			haveCountry = fieldErr == nil
		case "city":
			l.City, fieldErr = stringValue(value, dt, "city")
			haveCity = fieldErr == nil
		case "distance":
			l.Distance, fieldErr = uint32Value(value, dt, "distance")
			haveDistance = fieldErr == nil
		}
		return nil
	})
	if err != nil {
		return store.Location{}, err
	}
	if fieldErr != nil {
		return store.Location{}, fieldErr
	}
	if !haveID || !havePlace || !haveCountry || !haveCity || !haveDistance {
		return store.Location{}, fmt.Errorf("location document is missing required fields")
	}
	return l, nil
}

func decodeLocationPatch(body []byte) (store.LocationPatch, error) {
	var p store.LocationPatch
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "place":
			var v string
			if v, fieldErr = stringValue(value, dt, "place"); fieldErr == nil {
				p.Place = &v
			}
		case "country":
			var v string
			if v, fieldErr = stringValue(value, dt, "country"); fieldErr == nil {
				p.Country = &v
			}
		case "city":
			var v string
			if v, fieldErr = stringValue(value, dt, "city"); fieldErr == nil {
				p.City = &v
			}
		case "distance":
			var v uint32
			if v, fieldErr = uint32Value(value, dt, "distance"); fieldErr == nil {
				p.Distance = &v
			}
		}
		return nil
	})
	if err != nil {
		return store.LocationPatch{}, err
	}
	if fieldErr != nil {
		return store.LocationPatch{}, fieldErr
	}
	return p, nil
}

func decodeVisit(body []byte) (store.Visit, error) {
	var v store.Visit
	var haveID, haveLocation, haveUser, haveVisitedAt, haveMark bool
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "id":
			v.ID, fieldErr = uint32Value(value, dt, "id")
			haveID = fieldErr == nil
		case "location":
			v.LocationID, fieldErr = uint32Value(value, dt, "location")
			haveLocation = fieldErr == nil
		case "user":
			v.UserID, fieldErr = uint32Value(value, dt, "user")
			haveUser = fieldErr == nil
		case "visited_at":
			v.VisitedAt, fieldErr = intValue(value, dt, "visited_at")
			haveVisitedAt = fieldErr == nil
		case "mark":
			v.Mark, fieldErr = markValue(value, dt)
			haveMark = fieldErr == nil
		}
		return nil
	})
	if err != nil {
		return store.Visit{}, err
	}
	if fieldErr != nil {
		return store.Visit{}, fieldErr
	}
	if !haveID || !haveLocation || !haveUser || !haveVisitedAt || !haveMark {
		return store.Visit{}, fmt.Errorf("visit document is missing required fields")
	}
	return v, nil
}

func decodeVisitPatch(body []byte) (store.VisitPatch, error) {
	var p store.VisitPatch
	var fieldErr error

	err := jsonparser.ObjectEach(body, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if fieldErr != nil {
			return nil
		}
		switch string(key) {
		case "location":
			var v uint32
			if v, fieldErr = uint32Value(value, dt, "location"); fieldErr == nil {
				p.LocationID = &v
			}
		case "user":
			var v uint32
			if v, fieldErr = uint32Value(value, dt, "user"); fieldErr == nil {
				p.UserID = &v
			}
		case "visited_at":
			var v int64
			if v, fieldErr = intValue(value, dt, "visited_at"); fieldErr == nil {
				p.VisitedAt = &v
			}
		case "mark":
			var v uint8
			if v, fieldErr = markValue(value, dt); fieldErr == nil {
				p.Mark = &v
			}
		}
		return nil
	})
	if err != nil {
		return store.VisitPatch{}, err
	}
	if fieldErr != nil {
		return store.VisitPatch{}, fieldErr
	}
	return p, nil
}
