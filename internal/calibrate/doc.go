// Package calibrate implements the interactive preview loop used to pick a
// scale and JPEG quality before a batch rewrite.
//
// State holds the image list, the current index, and the two percentages;
// Apply is the whole transition table. Session renders the current image
// through imagery.Reducer and pulls one Event at a time from an EventSource,
// so tests drive it headless while Terminal adapts a raw-mode TTY.
package calibrate
