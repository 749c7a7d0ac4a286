package models

import "time"

// UserView is the public projection of a user. It never exposes SecretHash.
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// SnapshotView is the read-only dump of the whole store served by the
// database viewer.
type SnapshotView struct {
	Version   int64      `json:"version"`
	Users     []UserView `json:"users"`
	Accounts  []Account  `json:"accounts"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func ToUserView(u User) UserView {
	return UserView{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

func ToSnapshotView(d *Document) *SnapshotView {
	users := make([]UserView, 0, len(d.Users))
	for _, u := range d.Users {
		users = append(users, ToUserView(u))
	}
	accounts := make([]Account, len(d.Accounts))
	copy(accounts, d.Accounts)
	return &SnapshotView{
		Version:   d.Version,
		Users:     users,
		Accounts:  accounts,
		UpdatedAt: d.UpdatedAt,
	}
}
