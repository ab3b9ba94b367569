package admin

type Repository interface {
	// LoginAccount authenticates an admin. Returns db.ErrorInvalidRequest if
	// the username or password is incorrect.
	LoginAccount(username, password string) error
}
