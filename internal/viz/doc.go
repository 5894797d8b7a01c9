// Package viz provides the interactive terminal view for field snapshots.
//
// [Live] runs a Bubble Tea program and implements [sim.Sink]: the driver
// hands it one frame per step and stops once the user closes the view.
//
//   - [Model]: Bubble Tea model showing the latest Ez profile
//   - [Canvas]: Braille-based pixel canvas for the high-resolution plot
//
// # Key Bindings
//
//	Space - Pause/Resume stepping
//	+/-   - Faster/slower playback
//	V     - Toggle Braille canvas / line graph
//	?     - Show help overlay
//	Q     - Quit (ends the run)
package viz
