// Package render paints conversation events in a terminal.
//
// A Renderer is the presentation surface for the edi-chat CLI: it prints
// the header, greeting and suggestion chips, then turns each controller
// event into a message bubble. Follow-up chips are numbered so the CLI can
// map "/f N" back to Controller.ClickFollowup.
package render
