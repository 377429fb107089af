/*
Package fixtures provides the demo data behind the desktop apps.

Emails are grouped by folder, files by explorer tab and documents by
documents folder, each in a generic Dataset keyed by category. The seed
data is built in and may be replaced by a YAML catalog which is reloaded
when the file changes.

Uploads are classified by extension for display. Executables are
recognized by the .exe extension or by sniffing native binary headers.
*/
package fixtures
