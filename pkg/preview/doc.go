// Package preview keeps a rendered preview pane in step with a state.Session.
//
// Every mutation is translated into a small set of DOM patches addressed by
// element id. Patches are built from the same fragments the vanilla renderer
// uses for a full render, so applying them to a previously rendered pane
// yields the same tree as rendering the new snapshot from scratch.
package preview
