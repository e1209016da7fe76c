package user

// User is the caller as identified by the X-User-Id request header. Identity is
// asserted by the fronting proxy; there is no local account store.
type User struct {
	Uid string
}
