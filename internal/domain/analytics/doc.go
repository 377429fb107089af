// Package analytics computes the reporting views of the admin and staff
// dashboards from the activity archive, and owns the admin activity chart.
package analytics
