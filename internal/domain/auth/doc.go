/*
Package auth manages accounts and bearer tokens.

Passwords are hashed with bcrypt. Login issues an opaque random token that
lives in memory until it expires (TokenTTL, 30 minutes by default), is
revoked by Logout, or its account is deactivated. Authenticate resolves a
token back to its active user.

Account events (logins, failed logins, staff creation, status changes) are
passed to an Auditor so the server can archive them next to desktop
activity.

Admins may only create staff accounts in their own email domain.
*/
package auth
