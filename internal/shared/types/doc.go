// Package types provides shared data structures for the Digital Twin backend.
//
// Core Types:
//   - ActivityRecord: audit entry produced by the desktop activity logger
//   - Snapshot: observable desktop session state
//   - User, Staff: accounts and their departments
//   - StoredActivity: archived activity rows used by the admin API
//   - WSMessage: WebSocket envelope
//
// Enumerations:
//   - Theme: light / dark
//   - AppName: launchable desktop applications
//   - WindowState: closed, background, active
//   - Severity: toast severities
//   - Role: user, staff, admin
//
// Example Usage:
//
//	rec := types.ActivityRecord{
//	    Timestamp: time.Now(),
//	    Action:    "app_opened",
//	    Details:   map[string]interface{}{"appName": "email"},
//	}
package types
