package policy

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Policy keys
const (
	AllowFileUpload                 = "allowFileUpload"
	AllowFileDownload               = "allowFileDownload"
	AllowFileDelete                 = "allowFileDelete"
	AllowExecutableFiles            = "allowExecutableFiles"
	AllowInternetAccess             = "allowInternetAccess"
	RestrictToTrustedSites          = "restrictToTrustedSites"
	AllowThemeChange                = "allowThemeChange"
	AllowWallpaperChange            = "allowWallpaperChange"
	EnableActivityTracking          = "enableActivityTracking"
	EnableLocationServices          = "enableLocationServices"
	EnforceMFA                      = "enforceMFA"
	LimitConcurrentSessions         = "limitConcurrentSessions"
	AutoLockAfterFailedLogins       = "autoLockAfterFailedLogins"
	SessionTimeout                  = "sessionTimeout"
	PasswordExpiry                  = "passwordExpiry"
	AllowExternalEmail              = "allowExternalEmail"
	AllowEmailAttachments           = "allowEmailAttachments"
	AllowNewFolderCreation          = "allowNewFolderCreation"
	AllowDocumentSharing            = "allowDocumentSharing"
	AllowDocumentPrinting           = "allowDocumentPrinting"
	AdminApprovalForNewStaff        = "adminApprovalForNewStaff"
	DisableInactiveAccounts         = "disableInactiveAccounts"
	InactiveAfterDays               = "inactiveAfterDays"
	NotifyAdminOfSuspiciousActivity = "notifyAdminOfSuspiciousActivity"
	LockAfterFailedAttempts         = "lockAfterFailedAttempts"
	EnforceFileEncryption           = "enforceFileEncryption"
	RegularBackups                  = "regularBackups"
	BackupFrequency                 = "backupFrequency"
	EnableDetailedActivityLogging   = "enableDetailedActivityLogging"
	RetainLogs                      = "retainLogs"
)

// Kind distinguishes flag policies from numeric ones
type Kind int

const (
	KindBool Kind = iota
	KindNumber
)

// Value is one policy setting
type Value struct {
	Kind   Kind
	Bool   bool
	Number int
}

// Flag builds a boolean value
func Flag(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Num builds a numeric value
func Num(n int) Value { return Value{Kind: KindNumber, Number: n} }

// Allowed reports the permissive reading of the value. Numbers count as
// allowed when non-zero.
func (v Value) Allowed() bool {
	if v.Kind == KindNumber {
		return v.Number != 0
	}
	return v.Bool
}

// Interface returns the value as a JSON-friendly scalar
func (v Value) Interface() interface{} {
	if v.Kind == KindNumber {
		return v.Number
	}
	return v.Bool
}

// MarshalJSON encodes the bare scalar
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Defaults returns the built-in policy table
func Defaults() map[string]Value {
	return map[string]Value{
		AllowFileUpload:                 Flag(true),
		AllowFileDownload:               Flag(true),
		AllowFileDelete:                 Flag(true),
		AllowExecutableFiles:            Flag(false),
		AllowInternetAccess:             Flag(true),
		RestrictToTrustedSites:          Flag(true),
		AllowThemeChange:                Flag(true),
		AllowWallpaperChange:            Flag(true),
		EnableActivityTracking:          Flag(true),
		EnableLocationServices:          Flag(false),
		EnforceMFA:                      Flag(true),
		LimitConcurrentSessions:         Flag(true),
		AutoLockAfterFailedLogins:       Flag(true),
		SessionTimeout:                  Num(30),
		PasswordExpiry:                  Num(90),
		AllowExternalEmail:              Flag(true),
		AllowEmailAttachments:           Flag(true),
		AllowNewFolderCreation:          Flag(true),
		AllowDocumentSharing:            Flag(true),
		AllowDocumentPrinting:           Flag(false),
		AdminApprovalForNewStaff:        Flag(true),
		DisableInactiveAccounts:         Flag(true),
		InactiveAfterDays:               Num(30),
		NotifyAdminOfSuspiciousActivity: Flag(true),
		LockAfterFailedAttempts:         Num(3),
		EnforceFileEncryption:           Flag(true),
		RegularBackups:                  Flag(true),
		BackupFrequency:                 Num(7),
		EnableDetailedActivityLogging:   Flag(true),
		RetainLogs:                      Num(90),
	}
}

// Keys returns every known policy key in sorted order
func Keys() []string {
	d := Defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Gate answers whether a policy-controlled action may proceed. The key set
// is fixed at construction; Apply can change values but never add keys.
type Gate struct {
	mu     sync.RWMutex
	values map[string]Value // Protected by mu
}

// NewGate creates a gate holding the default table
func NewGate() *Gate {
	return &Gate{values: Defaults()}
}

// IsAllowed reports whether the policy permits the action. Unknown keys are
// denied.
func (g *Gate) IsAllowed(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.values[key]
	if !ok {
		return false
	}
	return v.Allowed()
}

// Value returns the raw setting for key
func (g *Gate) Value(key string) (Value, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.values[key]
	return v, ok
}

// Number returns a numeric setting; ok is false for unknown or flag keys
func (g *Gate) Number(key string) (int, bool) {
	v, ok := g.Value(key)
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Snapshot returns the whole table as plain scalars
func (g *Gate) Snapshot() map[string]interface{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]interface{}, len(g.values))
	for k, v := range g.values {
		out[k] = v.Interface()
	}
	return out
}

// Reset restores the default table
func (g *Gate) Reset() {
	g.mu.Lock()
	g.values = Defaults()
	g.mu.Unlock()
}

// Apply overlays values onto the table. Only known keys are considered and
// each value is coerced to the key's kind; anything else is skipped. The
// applied keys are returned in sorted order.
func (g *Gate) Apply(values map[string]interface{}) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	applied := make([]string, 0, len(values))
	for key, raw := range values {
		current, ok := g.values[key]
		if !ok {
			continue
		}
		next, ok := coerce(current.Kind, raw)
		if !ok {
			continue
		}
		g.values[key] = next
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied
}

func coerce(kind Kind, raw interface{}) (Value, bool) {
	switch kind {
	case KindBool:
		b, ok := toBool(raw)
		return Flag(b), ok
	case KindNumber:
		n, ok := toNumber(raw)
		return Num(n), ok
	}
	return Value{}, false
}

func toBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

func toNumber(raw interface{}) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
