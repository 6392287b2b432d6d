package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer access token.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization value.
const BearerPrefix = "Bearer "
