package cnst

// AppName is the service name used in logs and default paths.
const AppName = "datasrv"

// Gin context keys set by the auth middleware.
const (
	CtxClaims   = "claims"
	CtxAuthUser = "authUser"
)

// Header names inspected by the rate limiter.
const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)
