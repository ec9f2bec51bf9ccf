// Package viz is the terminal host for a session: a bubbletea program that
// feeds keyboard tilt and mouse touches into the loop and draws the
// particles on a braille canvas.
//
// # Key Bindings
//
//	Arrows/WASD - tilt (synthetic accelerometer)
//	[ ] { }     - turn and pitch (orientation)
//	Click       - touch
//	Space       - pause/resume
//	R           - restart
//	G           - toggle GIF recording
package viz
