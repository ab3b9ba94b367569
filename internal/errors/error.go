package errors

// ErrorUnauthorized is the error for unauthorized requests.
type ErrorUnauthorized struct{}

func (eu *ErrorUnauthorized) Error() string {
	return "not authorized"
}

// ErrorUnknown is returned to clients in place of server errors.
type ErrorUnknown struct{}

func (eu *ErrorUnknown) Error() string {
	return "an unknown server error occurred, please try again later"
}

// ErrorNotPersisted is returned to clients when a mutation was applied in
// memory but could not be saved.
type ErrorNotPersisted struct{}

func (enp *ErrorNotPersisted) Error() string {
	return "change applied but could not be saved, retry with a flush"
}
