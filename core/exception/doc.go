// Package exception maps faults to responses.
//
// A Dispatcher keeps two tables. The status table is keyed by HTTP status
// and is consulted first for typed HTTP faults (errors implementing
// response.StatusCoder). The type table holds registrations by concrete error
// type, interface type or sentinel value, in registration order.
//
// Type lookup walks the wrap chain from the outermost error inward. At each
// link the first registration matching the concrete type or sentinel wins.
// Only when no link matches exactly are interface registrations tried, in the
// same order; an interface plays the part of a base class.
//
//	d := exception.NewDispatcher()
//	d.HandleStatus(http.StatusNotFound, notFoundPage)
//	exception.HandleType[*ValidationError](d, renderValidation)
//	d.HandleError(sql.ErrNoRows, notFoundPage)
//
// Two chain links use the dispatcher. Middleware sits right in front of the
// handler and resolves registered handlers and typed faults. ServerErrors is
// the outermost link of every chain: it logs anything left over with its
// stack and renders either a caller supplied handler, a debug page, or a
// plain 500. Debug mode is evaluated per request.
//
// A handler that itself fails is never dispatched again; the client gets the
// generic 500 body.
package exception
