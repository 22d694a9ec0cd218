// Package cache provides durable stores for the translation snapshot and the
// language preference.
//
// Every store implements kisan.Store: a small key-value contract with
// ctx-aware Get, Put and Delete. Missing keys are reported as ErrNotFound.
package cache

import "github.com/aayush997726/kisan"

// Store is the storage contract shared with the kisan package.
type Store = kisan.Store

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = kisan.ErrNotFound
