// Package request maps semantic printer operations to the HTTP endpoints the
// printer firmware registers.
//
// Callers never build URLs by hand. They name an operation with a [Kind] and
// let a transport resolve it:
//
//	path := request.PathFor(request.ListFiles)     // "list-files"
//	method := request.MethodFor(request.ListFiles) // "GET"
//
// The table is closed: every Kind has exactly one path and one default method.
// Adding a Kind without extending [PathFor] and [MethodFor] panics on first use,
// and the package tests walk [Kinds] so the omission fails CI before it ships.
package request
