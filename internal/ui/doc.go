// Package ui contains the Bubble Tea program that presents a Neovim session
// in the terminal.
//
// Message flow:
//   - A backend.Watcher merges the session's redraw batches, subscription
//     events and end notice. Update waits for one event at a time and hands
//     it to the data dispatcher, which applies it to the state.Model the UI
//     owns. The model is never touched from any other goroutine.
//   - Every tea.Msg type is routed through a typed handler registry: keys,
//     mouse, window size, backend events and command results each have a
//     focused handler.
//   - Work that talks to Neovim (keys, mouse, paste, resize) runs through
//     the internal/ui/command bus, which executes requests in order on its
//     own goroutine and reports failures back as command.ActionResult.
//
// Rendering:
//   - The grid frame is rebuilt only when a flushed batch changed something
//     or the surface was resized. Window grids are composited onto the outer
//     grid, cells are styled by theme.ForAttr and a status line is appended.
package ui
