package activity

// Action names with security significance
const (
	ActionFailedLogin               = "failed_login"
	ActionFileAccessDenied          = "file_access_denied"
	ActionUnauthorizedAccessAttempt = "unauthorized_access_attempt"
	ActionMultipleFailedLogins      = "multiple_failed_logins"
	ActionSuspiciousFileAccess      = "suspicious_file_access"
	ActionAdminActionAttempted      = "admin_action_attempted"
	ActionUnauthorizedAccess        = "unauthorized_access"
	ActionSuspiciousActivity        = "suspicious_activity"
	ActionPolicyDenied              = "policy_denied"
)

var suspicious = map[string]struct{}{
	ActionFailedLogin:               {},
	ActionFileAccessDenied:          {},
	ActionUnauthorizedAccessAttempt: {},
	ActionMultipleFailedLogins:      {},
	ActionSuspiciousFileAccess:      {},
	ActionAdminActionAttempted:      {},
	ActionUnauthorizedAccess:        {},
	ActionSuspiciousActivity:        {},
	ActionPolicyDenied:              {},
}

// SuspiciousActions lists the actions flagged for security review
func SuspiciousActions() []string {
	return []string{
		ActionFailedLogin,
		ActionFileAccessDenied,
		ActionUnauthorizedAccessAttempt,
		ActionMultipleFailedLogins,
		ActionSuspiciousFileAccess,
		ActionAdminActionAttempted,
		ActionUnauthorizedAccess,
		ActionSuspiciousActivity,
		ActionPolicyDenied,
	}
}

// IsSuspicious reports whether an action should raise a security alert
func IsSuspicious(action string) bool {
	_, ok := suspicious[action]
	return ok
}
