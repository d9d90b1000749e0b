package store

import "fmt"

// Field limits come with the dataset contract and are not configurable.
const (
	maxEmailLen   = 100
	maxNameLen    = 500
	maxCountryLen = 50
	maxCityLen    = 50
	maxMark       = 5
)

// validateUser checks field-level constraints. Pure: no lock, no I/O.
func validateUser(u User) error {
	if len(u.Email) > maxEmailLen {
		return &ValidationError{
			Field:  "email",
			Reason: fmt.Sprintf("length is %d (max %d)", len(u.Email), maxEmailLen),
		}
	}
	if len(u.FirstName) > maxNameLen {
		return &ValidationError{
			Field:  "first_name",
			Reason: fmt.Sprintf("length is %d (max %d)", len(u.FirstName), maxNameLen),
		}
	}
	if len(u.LastName) > maxNameLen {
		return &ValidationError{
			Field:  "last_name",
			Reason: fmt.Sprintf("length is %d (max %d)", len(u.LastName), maxNameLen),
		}
	}
	if u.Gender != "f" && u.Gender != "m" {
		return &ValidationError{
			Field:  "gender",
			Reason: fmt.Sprintf("is %q (allowed: f, m)", u.Gender),
		}
	}
	return nil
}

func validateLocation(l Location) error {
	if len(l.Country) > maxCountryLen {
		return &ValidationError{
			Field:  "country",
			Reason: fmt.Sprintf("length is %d (max %d)", len(l.Country), maxCountryLen),
		}
	}
	if len(l.City) > maxCityLen {
		return &ValidationError{
			Field:  "city",
			Reason: fmt.Sprintf("length is %d (max %d)", len(l.City), maxCityLen),
		}
	}
	return nil
}

// validateVisit checks the visit's own fields only. Foreign key resolution
// is the facade's job because it needs the tables.
func validateVisit(v Visit) error {
	if v.Mark > maxMark {
		return &ValidationError{
			Field:  "mark",
			Reason: fmt.Sprintf("is %d (max %d)", v.Mark, maxMark),
		}
	}
	return nil
}
