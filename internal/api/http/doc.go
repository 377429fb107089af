// Package http provides the REST API of the Digital Twin backend.
//
// Handlers are built once from Deps and mounted with Register. Every route
// except /, /health, /token, /register and the websocket upgrade requires a
// bearer token.
//
// Endpoints:
//   - Auth: /token, /register, /users/me, /logout
//   - Activity archive: /activity/log, /activity/user/:id, /activity/* (admin)
//   - Admin: /admin/dashboard/stats, /admin/users, /admin/security/alerts,
//     /admin/analytics/activities, /admin/activities/export, /admin/chart
//   - Staff: /staff/profile, /staff/department/*, /staff/performance/metrics
//   - Desktop session: /desktop/state, /desktop/apps/:app/launch, /desktop/files,
//     /desktop/settings, /desktop/search and the other /desktop routes
//   - UI log forwarding: /logs/stream
//
// Admin views only see accounts that share the admin's email domain.
//
// Example Usage:
//
//	h := http.NewHandlers(http.Deps{Auth: authSvc, Store: store, ...})
//	h.Register(router)
package http
