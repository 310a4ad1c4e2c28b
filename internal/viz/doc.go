// Package viz provides the terminal front end for a running simulation.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: steps a [life.Simulation] once per tick and renders stats
//   - [Surface]: a presentation surface that rasterizes generations onto a
//     [Canvas] of Braille characters
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space - Toggle GPU/CPU execution
//	P     - Pause/Resume
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	Q     - Quit
//
// # Recording
//
// The visualization supports recording sessions as GIF animations using the
// G key. Recordings are saved to the current directory.
package viz
