// Package store holds the shared application state ("AppState") consumed by
// pages and route guards.
//
// A Store has exactly one writer path, Update, which merges a Patch into the
// current State through a MergeFunc (shallow merge by default). Readers take
// snapshots. The Ready channel closes after the first committed update so that
// route guards never evaluate against an unpopulated state.
//
//	s := store.New(store.State{})
//	go store.Bootstrap(ctx, s, store.NewHTTPLoader("http://api.local"), sessionID, logger)
//
//	<-s.Ready()
//	state, set := s.Use()
//	set(store.Patch{Message: store.Some("Saved")})
package store
