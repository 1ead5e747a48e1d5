// Package journal persists one record per closed dispatch cycle and lets
// operators query the history by cycle range, passenger or station.
package journal
