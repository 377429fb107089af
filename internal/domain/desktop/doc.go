/*
Package desktop drives a simulated desktop session.

A Controller owns the session state (theme, menus, windows, per-app
selections), the policy gate and the activity log. Each operation checks
the relevant policy, mutates state, appends an activity record and then
issues render commands to a Renderer. A denied operation shows a toast,
records a policy_denied entry and leaves state untouched.

The Registry keeps one Controller per authenticated user for the server.

# Usage

	c := desktop.New(desktop.Options{UserID: user.ID, Store: kv, Renderer: page})
	c.LaunchApp(ctx, types.AppFileExplorer)
	if c.DeleteFile("Budget_2024.xlsx") == desktop.Denied {
	    // toast already shown
	}
*/
package desktop
