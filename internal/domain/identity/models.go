package identity

import "time"

// User is one half of a couple. LegacyID is the push token older synced data
// was keyed by; both keys refer to the same person.
type User struct {
	ID          string
	LegacyID    string
	DisplayName string
}

// Matches reports whether key refers to u through either identifier.
func (u User) Matches(key string) bool {
	if key == "" {
		return false
	}
	return key == u.ID || (u.LegacyID != "" && key == u.LegacyID)
}

// Keys returns every identifier u may appear under.
func (u User) Keys() []string {
	if u.LegacyID == "" || u.LegacyID == u.ID {
		return []string{u.ID}
	}
	return []string{u.ID, u.LegacyID}
}

// Couple is the current device's pairing. Partner is nil until pairing completes.
type Couple struct {
	ID        string
	User      User
	Partner   *User
	UpdatedAt time.Time
}

// Key is the id quests and backend calls are scoped to. Before pairing the
// user gets a solo key so that local progress still has a home.
func (c *Couple) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return "solo-" + c.User.ID
}

func (c *Couple) Paired() bool {
	return c != nil && c.Partner != nil && c.Partner.ID != ""
}

// Members returns the user followed by the partner when paired.
func (c *Couple) Members() []User {
	if c == nil {
		return nil
	}
	if !c.Paired() {
		return []User{c.User}
	}
	return []User{c.User, *c.Partner}
}

// Member resolves key to a couple member, or nil.
func (c *Couple) Member(key string) *User {
	for _, m := range c.Members() {
		if m.Matches(key) {
			m := m
			return &m
		}
	}
	return nil
}
