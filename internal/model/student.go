package model

type Student struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	StudentCode string `json:"studentCode"`
	Coins       int    `json:"coins"`
}

// FullName joins first and last name, skipping empty parts.
func (s Student) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
