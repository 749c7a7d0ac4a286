package models

import "time"

// Document is the whole ledger store: every user and every account, loaded and
// persisted as a single unit.
type Document struct {
	Version       int64     `json:"version"`
	NextUserID    int64     `json:"nextUserId"`
	NextAccountID int64     `json:"nextAccountId"`
	Users         []User    `json:"users"`
	Accounts      []Account `json:"accounts"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewDocument returns the empty document a fresh store starts from.
func NewDocument() *Document {
	return &Document{
		Users:     []User{},
		Accounts:  []Account{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Normalize repairs a decoded document: nil collections become empty and the
// id counters are moved past every id already in use, so documents written by
// older clock-based id schemes keep allocating unique ids.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Accounts == nil {
		d.Accounts = []Account{}
	}
	for i := range d.Accounts {
		if d.Accounts[i].MonthlyHistory == nil {
			d.Accounts[i].MonthlyHistory = []MonthlyRecord{}
		}
		if d.Accounts[i].ID > d.NextAccountID {
			d.NextAccountID = d.Accounts[i].ID
		}
	}
	for _, u := range d.Users {
		if u.ID > d.NextUserID {
			d.NextUserID = u.ID
		}
	}
}

func (d *Document) AllocateAccountID() int64 {
	d.NextAccountID++
	return d.NextAccountID
}

func (d *Document) AllocateUserID() int64 {
	d.NextUserID++
	return d.NextUserID
}

// FindAccount returns a pointer into the document, valid until the next
// change to the account list.
func (d *Document) FindAccount(id int64) *Account {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return &d.Accounts[i]
		}
	}
	return nil
}

// AccountsByOwner copies the owner's accounts in store order.
func (d *Document) AccountsByOwner(ownerID int64) []Account {
	out := []Account{}
	for _, a := range d.Accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out
}

// RemoveAccount deletes the first account matching both id and owner.
func (d *Document) RemoveAccount(id, ownerID int64) bool {
	for i, a := range d.Accounts {
		if a.ID == id && a.OwnerID == ownerID {
			d.Accounts = append(d.Accounts[:i], d.Accounts[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAccountsByOwner deletes every account of the owner and returns them.
func (d *Document) RemoveAccountsByOwner(ownerID int64) []Account {
	removed := []Account{}
	kept := d.Accounts[:0]
	for _, a := range d.Accounts {
		if a.OwnerID == ownerID {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	d.Accounts = kept
	return removed
}

func (d *Document) FindUserByName(name string) *User {
	for i := range d.Users {
		if d.Users[i].Name == name {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) RemoveUser(id int64) bool {
	for i, u := range d.Users {
		if u.ID == id {
			d.Users = append(d.Users[:i], d.Users[i+1:]...)
			return true
		}
	}
	return false
}
