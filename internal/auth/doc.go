// Package auth provides the credential source for authenticated writes.
//
// The resource client asks a Gate for an Authorization header before every
// write that requires auth. An empty header aborts the write silently and a
// Dismisser is told so any open modal can close.
//
//	gate := auth.NewTokenGate(cfg.API.Token)
//	if err := gate.Login(ctx, restyClient, cfg.API.Base, creds); err != nil {
//	    ...
//	}
package auth
