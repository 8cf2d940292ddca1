package models

import "encoding/json"

// User is the account record returned by /auth/login and /auth/check.
type User struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`

	// Extra keeps server-defined fields this client does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownUserFields = []string{"_id", "fullName", "email", "isAdmin"}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownUserFields {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*u = User(p)
	return nil
}

// Registration is the payload of /auth/register.
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
