// Package printer provides typed printer operations on top of a
// transport.Router.
//
// Reads such as ListFiles or PrintStatus return the decoded value and a
// boolean that is false when no transport was reachable or the reply could
// not be decoded. Mutations such as PrintFile return an error, which is
// transport.ErrUnreachable when nothing could carry the request and a
// *transport.Error of type HTTP when the printer answered with a non-2xx
// status.
//
// # Usage Example
//
//	client := printer.NewClient(router)
//	if status, ok := client.PrintStatus(ctx); ok {
//	    fmt.Print(printer.FormatPrintStatus(status))
//	}
//
// The formatting helpers mirror the printer's own control panel: sizes use
// 1024-based units, remaining time is rounded up to whole minutes.
package printer
