package auth

// User is the authenticated account profile returned by the remote
// collaborator.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Avatar    string    `json:"avatar"`
	Addresses []Address `json:"addresses"`
}

// Address is a saved shipping address on the user's profile. The same
// shape doubles as the checkout shipping address.
type Address struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Default  bool   `json:"isDefault,omitempty"`
}

// DefaultAddress returns the user's default saved address, if any.
func (u User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.Default {
			return a, true
		}
	}
	return Address{}, false
}

// ProfileUpdate carries profile fields to change. Zero-value fields are
// left untouched by the remote collaborator.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// Registration is the new-account request.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}
