// Package ws is the websocket hub of the backend.
//
// Clients connect to /ws/:client_type where the type is admin, staff or
// users. Admin and staff channels need a token of a matching role; the
// users channel accepts anonymous connections but only authenticated ones
// receive desktop frames.
//
// Message Types (Client → Server):
//   - activity_log: persist an action; suspicious actions raise a
//     security_alert on the admin channel
//   - system_status: relayed to admins
//   - notification: relayed to the target channel or to everyone
//   - ping: answered with pong
//
// Message Types (Server → Client):
//   - activity_update: a desktop activity record, to admins and its owner
//   - render: a desktop drawing command for the owning user's page
//   - chart_update: admin chart refresh
//   - security_alert, system_notification, activity_logged, error
package ws
