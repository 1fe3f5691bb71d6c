// Package tui implements the interactive terminal dashboard.
//
// The dashboard shows every device the cube knows about in one table
// (room, name, mode, setpoint, measured temperature, valve position and
// warning flags) and repaints rows live as the cube reports changes.
//
// Built on Bubble Tea with Bubbles components (table, key, help) and
// Lip Gloss styling. The model consumes the cube session's update feed
// through a tea.Cmd that blocks on the channel and re-arms itself, the
// conventional Bubble Tea pattern for external event sources.
//
// # Key Bindings
//
//	↑/k, ↓/j  move the selection
//	r         request a fresh device list from the cube
//	q, esc    quit
//
// # Usage Example
//
//	c, err := cube.Dial(ctx, host, cube.DefaultPort)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tui.Run(c); err != nil {
//	    log.Fatal(err)
//	}
package tui
