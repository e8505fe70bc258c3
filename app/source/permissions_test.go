package source

import (
	"testing"
)

func TestNewPermissionsViewKnownKeys(t *testing.T) {
	perms := &AppPermissions{
		Privacy: map[string]string{
			"NSCameraUsageDescription": "Used to scan documents",
		},
	}

	view := NewPermissionsView(perms)
	if view == nil {
		t.Fatal("Expected a permissions view")
	}
	if len(view.Privacy) != 1 {
		t.Fatalf("Expected 1 privacy row, got %d", len(view.Privacy))
	}

	row := view.Privacy[0]
	if row.Label != "Camera" {
		t.Errorf("Expected label 'Camera', got %q", row.Label)
	}
	if row.Icon != "camera" {
		t.Errorf("Expected icon 'camera', got %q", row.Icon)
	}
	if row.Description != "Used to scan documents" {
		t.Errorf("Expected the feed's description, got %q", row.Description)
	}
}

func TestNewPermissionsViewUnknownKeyFallback(t *testing.T) {
	perms := &AppPermissions{
		Privacy: map[string]string{
			"NSSiriKitUsageDescription": "Voice shortcuts",
		},
	}

	view := NewPermissionsView(perms)
	row := view.Privacy[0]

	if row.Label != "Siri Kit" {
		t.Errorf("Expected derived label 'Siri Kit', got %q", row.Label)
	}
	if row.Icon != fallbackPermissionIcon {
		t.Errorf("Expected fallback icon %q, got %q", fallbackPermissionIcon, row.Icon)
	}
}

func TestDerivePermissionLabel(t *testing.T) {
	cases := []struct {
		key      string
		expected string
	}{
		{"NSHomeKitUsageDescription", "Home Kit"},
		{"NSNearbyInteractionDescription", "Nearby Interaction"},
		{"CustomThing", "Custom Thing"},
	}

	for _, c := range cases {
		if got := derivePermissionLabel(c.key); got != c.expected {
			t.Errorf("derivePermissionLabel(%q): expected %q, got %q", c.key, c.expected, got)
		}
	}
}

func TestNewPermissionsViewEntitlements(t *testing.T) {
	perms := &AppPermissions{
		Entitlements: []string{
			"com.apple.developer.icloud-services",
			"get-task-allow",
		},
	}

	view := NewPermissionsView(perms)
	if view == nil {
		t.Fatal("Expected a permissions view")
	}
	if !view.EntitlementsCollapsed {
		t.Error("Entitlement chips must start collapsed")
	}
	if len(view.Entitlements) != 2 {
		t.Fatalf("Expected 2 chips, got %d", len(view.Entitlements))
	}

	if view.Entitlements[0].Short != "icloud-services" {
		t.Errorf("Expected short form 'icloud-services', got %q", view.Entitlements[0].Short)
	}
	if view.Entitlements[0].Full != "com.apple.developer.icloud-services" {
		t.Errorf("Full identifier must be preserved, got %q", view.Entitlements[0].Full)
	}
	if view.Entitlements[1].Short != "get-task-allow" {
		t.Errorf("Identifier without dots keeps its full form, got %q", view.Entitlements[1].Short)
	}
}

func TestNewPermissionsViewAbsent(t *testing.T) {
	if NewPermissionsView(nil) != nil {
		t.Error("nil permissions should yield nil view")
	}
	if NewPermissionsView(&AppPermissions{}) != nil {
		t.Error("empty permissions should yield nil view")
	}
}
