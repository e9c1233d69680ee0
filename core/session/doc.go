// Package session provides server-side sessions keyed by an opaque token.
//
// A Session is a small map of values with a modified flag. A Manager loads
// sessions from a Backend and saves them back only when they changed, so
// read-only requests never touch storage. Two backends ship with the package:
//
//   - MemoryBackend: an in-process expirable LRU, for development and tests.
//   - RedisBackend: JSON documents stored with a TTL in Redis.
//
// The session middleware in package middleware reads the session token from
// a cookie, attaches the loaded Session to the request and persists it after
// the handler ran:
//
//	manager := session.NewManager(session.NewMemoryBackend(10_000, 24*time.Hour))
//	app.Use(middleware.Session(manager))
//
//	app.Get("/cart", func(req *request.Request, res *response.Response) (*response.Response, error) {
//		sess := session.MustFromRequest(req)
//		sess.Set("visited", true)
//		return res.JSON(sess.Values()), nil
//	})
//
// Values round-tripped through RedisBackend are decoded from JSON, so numbers
// come back as float64.
package session
