package store

// User is a registered traveller. Identifiers are externally assigned and
// unique for the lifetime of the store.
type User struct {
	ID        uint32 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	BirthDate int64  `json:"birth_date"`
}

// Location is a visitable place. Distance is an opaque ranking unit, not a
// physical measurement.
type Location struct {
	ID       uint32 `json:"id"`
	Place    string `json:"place"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Distance uint32 `json:"distance"`
}

// Visit links a user to a location at a point in time with a mark of 0-5.
// It is the only entity carrying foreign keys; both must resolve at the
// moment the visit is committed.
type Visit struct {
	ID         uint32 `json:"id"`
	LocationID uint32 `json:"location"`
	UserID     uint32 `json:"user"`
	VisitedAt  int64  `json:"visited_at"`
	Mark       uint8  `json:"mark"`
}

// UserPatch is a partial update for a User. Nil fields keep their current
// value.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Gender    *string
	BirthDate *int64
}

// LocationPatch is a partial update for a Location.
type LocationPatch struct {
	Place    *string
	Country  *string
	City     *string
	Distance *uint32
}

// VisitPatch is a partial update for a Visit.
type VisitPatch struct {
	LocationID *uint32
	UserID     *uint32
	VisitedAt  *int64
	Mark       *uint8
}

// UserVisit is one entry of a user's visit history.
type UserVisit struct {
	Mark      uint8  `json:"mark"`
	VisitedAt int64  `json:"visited_at"`
	Place     string `json:"place"`
}

// UserVisits is the visit-history result shape.
type UserVisits struct {
	Visits []UserVisit `json:"visits"`
}

// LocationAvg is the rating result shape. Zero matching visits yields
// Avg 0.0, which is a valid result, not an error.
type LocationAvg struct {
	Avg float64 `json:"avg"`
}

func (p UserPatch) applyTo(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		u.BirthDate = *p.BirthDate
	}
	return u
}

func (p LocationPatch) applyTo(l Location) Location {
	if p.Place != nil {
		l.Place = *p.Place
	}
	if p.Country != nil {
		l.Country = *p.Country
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.Distance != nil {
		l.Distance = *p.Distance
	}
	return l
}

func (p VisitPatch) applyTo(v Visit) Visit {
	if p.LocationID != nil {
		v.LocationID = *p.LocationID
	}
	if p.UserID != nil {
		v.UserID = *p.UserID
	}
	if p.VisitedAt != nil {
		v.VisitedAt = *p.VisitedAt
	}
	if p.Mark != nil {
		v.Mark = *p.Mark
	}
	return v
}
