// Package model defines the portfolio data handed to renderers: the profile
// collected by the editor form, the ordered project list and the immutable
// Portfolio snapshot. State mutation lives in pkg/state; everything here is
// plain data so renderers stay pure functions of a snapshot.
package model
