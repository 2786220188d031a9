package error

// GenericError is implemented by errors that carry an HTTP mapping.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
