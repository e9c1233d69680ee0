// Package auth defines authentication backends for relay applications.
//
// A Backend inspects a request and returns the authenticated user together
// with a scope label naming the mechanism ("jwt", "basic", "session").
// A backend that finds no credentials it understands returns a nil user and
// a nil error; rejected credentials are reported with ErrInvalidCredentials
// or ErrInvalidToken so the auth middleware can answer 401. Any other error
// is an infrastructure fault and propagates as one.
//
// Backends shipped with the package:
//
//   - JWTBackend: HMAC-signed bearer tokens (golang-jwt), with optional
//     issuer and audience checks and a Revoker for jti blacklisting.
//   - BasicBackend: HTTP Basic credentials checked against bcrypt hashes.
//   - SessionBackend: the user id stored in the request session by Login.
//
// Chain tries several backends in order:
//
//	jwtBackend, err := auth.NewJWTBackend([]byte(secret), auth.WithIssuer("relay"))
//	if err != nil {
//		return err
//	}
//	app.Use(middleware.Auth(auth.Chain(jwtBackend, auth.NewSessionBackend())))
package auth
