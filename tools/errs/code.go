package errs

const (
	ServerInternalError = 500

	ArgsError           = 1001
	InvalidMediaError   = 1002
	RecordNotFoundError = 1004
	NoPermissionError   = 1005

	TokenInvalidError  = 1501
	TokenMissingError  = 1502
	TokenMismatchError = 1503

	UpstreamError = 1601
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")

	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrInvalidMedia   = NewCodeError(InvalidMediaError, "InvalidMediaError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrNoPermission   = NewCodeError(NoPermissionError, "NoPermissionError")

	ErrTokenInvalid  = NewCodeError(TokenInvalidError, "Unauthorized")
	ErrTokenMissing  = NewCodeError(TokenMissingError, "Unauthorized")
	ErrTokenMismatch = NewCodeError(TokenMismatchError, "IdentityMismatch")

	ErrUpstream = NewCodeError(UpstreamError, "UpstreamError")
)
