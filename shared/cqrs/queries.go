package cqrs

// ---------- User queries ----------

// LoginQuery exchanges a name and secret for a bearer token.
type LoginQuery struct {
	Name   string
	Secret string
}

// ---------- Account queries ----------

// ListAccountsQuery fetches every account in the store.
type ListAccountsQuery struct{}

// ListUserAccountsQuery fetches all accounts belonging to an owner.
type ListUserAccountsQuery struct {
	OwnerID int64
}
