// Package ui holds the terminal styles and boxes printed by the printlink
// commands and reused by the monitor.
//
// Output is built from lipgloss styles sized to the terminal width
// (golang.org/x/term). A command typically prints a Header, then its
// content, then a Result:
//
//	fmt.Println(ui.NewHeader("Print status", "printlink status",
//	    ui.Param{Key: "Via", Value: "lan"}).Render())
//	fmt.Println(ui.RenderSuccess("Print started", ui.Param{Key: "File", Value: "7"}))
//
// Failures carry troubleshooting tips, usually from transport.Hint:
//
//	fmt.Println(ui.RenderFailure("Printer not reachable", err, transport.Hint(err)))
package ui
