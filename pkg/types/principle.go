package types

// SimplePrinciple is the authenticated identity threaded explicitly through
// handlers, services and clients. There is no ambient "current user" — every
// operation that acts on behalf of a user receives one of these.
type SimplePrinciple interface {
	GetUserId() uint64
	GetEmail() string
	GetToken() string
}

// UserPrinciple is the standard principle produced by the auth middleware.
type UserPrinciple struct {
	UserId       uint64
	Email        string
	Name         string
	CurrentToken string
}

func (u *UserPrinciple) GetUserId() uint64 { return u.UserId }
func (u *UserPrinciple) GetEmail() string  { return u.Email }
func (u *UserPrinciple) GetToken() string  { return u.CurrentToken }
