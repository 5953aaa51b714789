package ui_test

import (
	"strings"
	"testing"

	"github.com/klauern/dirmerge/internal/ui"
)

func TestColorToggle(t *testing.T) {
	ui.DisableColors()
	if ui.IsColorEnabled() {
		t.Error("colors should be disabled after DisableColors")
	}

	ui.EnableColors()
	if !ui.IsColorEnabled() {
		t.Error("colors should be enabled after EnableColors")
	}

	// Leave disabled so other tests see stable output
	ui.DisableColors()
}

func TestStatusHelpers(t *testing.T) {
	ui.DisableColors()

	tests := []struct {
		name   string
		fn     func(string) string
		symbol string
	}{
		{"success", ui.StatusSuccess, ui.SymbolSuccess},
		{"error", ui.StatusError, ui.SymbolError},
		{"warning", ui.StatusWarning, ui.SymbolWarning},
		{"skipped", ui.StatusSkipped, ui.SymbolSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("message")
			if !strings.HasPrefix(got, tt.symbol) {
				t.Errorf("expected prefix %q, got %q", tt.symbol, got)
			}
			if !strings.Contains(got, "message") {
				t.Errorf("expected message in output, got %q", got)
			}

			bare := tt.fn("")
			if bare != tt.symbol {
				t.Errorf("expected bare symbol %q, got %q", tt.symbol, bare)
			}
		})
	}
}
