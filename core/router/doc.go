// Package router holds the ordered route table.
//
// Routes are matched in registration order and the first route whose pattern
// and method both match wins. When some route matches the path but none
// allows the method, the match reports MethodNotAllowed together with the
// union of methods those routes allow, so the caller can answer 405 with a
// complete Allow header.
//
//	r := router.New(router.WithPrefix("/api"))
//	r.Get("/users/{id:int}", showUser, router.WithName("user"))
//	r.Post("/users", createUser, router.WithMiddleware(auth))
//
//	m := r.Match("GET", "/api/users/7")
//	// m.Status == router.Found, m.Params["id"] == "7"
//
//	u, _ := r.URLFor("user", map[string]string{"id": "7"})
//	// u == "/api/users/7"
//
// Mount copies the routes of another router under a prefix. The copy is taken
// once; later changes to the mounted router are not seen by the parent.
//
// A Router is safe for concurrent matching. Registration while serving is
// allowed but is normally finished before the server starts.
package router
