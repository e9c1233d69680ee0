// Package route compiles path templates into matchers.
//
// Four template kinds are recognised:
//
//	/users                     Literal, compared byte for byte
//	/users/{id}                Parameterized, default constraint [^/]+
//	/users/{id:int}/{slug}     Parameterized with a constraint or converter alias
//	/static/*                  Wildcard, each * matches anything (non-greedy)
//	^/v(?P<version>[0-9]+)/.*$ RawRegex, named groups become parameters
//
// Matching is always anchored to the whole path. A template that names the
// same parameter twice fails to compile with ErrDuplicateParam.
//
// Converter aliases accepted in {name:alias}: int, float, str, path, uuid, slug.
// Anything else after the colon is used as a regular expression.
package route
