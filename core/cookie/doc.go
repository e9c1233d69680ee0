// Package cookie parses request Cookie headers and serializes response cookies.
//
// Parse keeps the first value when a name repeats, which matches how browsers
// order cookies (most specific path first):
//
//	values := cookie.Parse("sid=abc; theme=dark; sid=old")
//	values["sid"] // "abc"
//
// Response cookies carry Options:
//
//	c := cookie.New("sid", "abc", cookie.WithMaxAge(3600), cookie.WithHTTPOnly(true))
//	header := c.String() // sid=abc; Path=/; Max-Age=3600; HttpOnly; SameSite=Lax
package cookie
