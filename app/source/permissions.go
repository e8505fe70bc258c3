package source

import (
	"sort"
	"strings"
	"unicode"
)

// PermissionRow is one privacy disclosure in the detail view.
type PermissionRow struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// EntitlementChip shows the last dot-separated segment of an
// entitlement identifier; the full identifier stays available for
// hover text.
type EntitlementChip struct {
	Short string `json:"short"`
	Full  string `json:"full"`
}

// PermissionsView groups an app's privacy rows and entitlement chips.
// The chip list starts collapsed.
type PermissionsView struct {
	Privacy               []PermissionRow   `json:"privacy,omitempty"`
	Entitlements          []EntitlementChip `json:"entitlements,omitempty"`
	EntitlementsCollapsed bool              `json:"entitlementsCollapsed"`
}

type permissionInfo struct {
	Label string
	Icon  string
}

// Known iOS privacy keys. Anything else falls back to a derived label
// and a generic lock icon.
var knownPermissions = map[string]permissionInfo{
	"NSCameraUsageDescription":                     {"Camera", "camera"},
	"NSMicrophoneUsageDescription":                 {"Microphone", "mic"},
	"NSPhotoLibraryUsageDescription":               {"Photo Library", "photos"},
	"NSPhotoLibraryAddUsageDescription":            {"Photo Library (Add)", "photos"},
	"NSLocationWhenInUseUsageDescription":          {"Location (When In Use)", "location"},
	"NSLocationAlwaysAndWhenInUseUsageDescription": {"Location (Always)", "location"},
	"NSContactsUsageDescription":                   {"Contacts", "contacts"},
	"NSCalendarsUsageDescription":                  {"Calendars", "calendar"},
	"NSRemindersUsageDescription":                  {"Reminders", "reminders"},
	"NSBluetoothAlwaysUsageDescription":            {"Bluetooth", "bluetooth"},
	"NSBluetoothPeripheralUsageDescription":        {"Bluetooth", "bluetooth"},
	"NSFaceIDUsageDescription":                     {"Face ID", "faceid"},
	"NSLocalNetworkUsageDescription":               {"Local Network", "network"},
	"NSSpeechRecognitionUsageDescription":          {"Speech Recognition", "speech"},
	"NSHealthShareUsageDescription":                {"Health Data", "health"},
	"NSHealthUpdateUsageDescription":               {"Health Data (Write)", "health"},
	"NSMotionUsageDescription":                     {"Motion & Fitness", "motion"},
	"NSAppleMusicUsageDescription":                 {"Media Library", "music"},
	"NSUserTrackingUsageDescription":               {"Tracking", "tracking"},
}

const fallbackPermissionIcon = "lock"

// NewPermissionsView builds the permissions block. A nil or empty
// permission set yields nil, which hides both sub-sections entirely.
func NewPermissionsView(perms *AppPermissions) *PermissionsView {
	if perms == nil || (len(perms.Privacy) == 0 && len(perms.Entitlements) == 0) {
		return nil
	}

	view := &PermissionsView{
		EntitlementsCollapsed: true,
	}

	for _, key := range sortedKeys(perms.Privacy) {
		row := PermissionRow{
			Key:         key,
			Description: perms.Privacy[key],
			Icon:        fallbackPermissionIcon,
			Label:       derivePermissionLabel(key),
		}
		if info, ok := knownPermissions[key]; ok {
			row.Label = info.Label
			row.Icon = info.Icon
		}
		view.Privacy = append(view.Privacy, row)
	}

	for _, ent := range perms.Entitlements {
		view.Entitlements = append(view.Entitlements, EntitlementChip{
			Short: lastDotSegment(ent),
			Full:  ent,
		})
	}

	return view
}

// derivePermissionLabel turns an unrecognized privacy key like
// "NSSirikitUsageDescription" into "Sirikit" by stripping the fixed
// prefix/suffix tokens and spacing out capitalized words.
func derivePermissionLabel(key string) string {
	label := strings.TrimPrefix(key, "NS")
	label = strings.TrimSuffix(label, "UsageDescription")
	label = strings.TrimSuffix(label, "Description")

	var b strings.Builder
	for i, r := range label {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lastDotSegment(s string) string {
	if idx := strings.LastIndex(s, "."); idx >= 0 && idx < len(s)-1 {
		return s[idx+1:]
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic row order; Go maps iterate randomly
	sort.Strings(keys)
	return keys
}
