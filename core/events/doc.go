// Package events defines the typed events published on the internal bus
// while a dispatch request is processed.
package events
