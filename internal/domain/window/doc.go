/*
Package window manages the open application windows of a desktop session.

Each app has at most one window, identified as "window-<app>". A window is
closed, in the background, or active; exactly zero or one window is active
at a time. Launching an app that is already open focuses it. Launching an
app without a template fails with ErrTemplateMissing and changes nothing.
*/
package window
