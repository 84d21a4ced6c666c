package models

type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// DisplayName is the creator's name, or the raw id when the record has none.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID.String()
}
