// Package integration provides integration tests for data-syncd.
// These tests run the complete daemon against real directory trees and drive
// full syncs through the startup path and the HTTP control surface.
package integration
