package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name        string
		title       string
		description string
		want        Category
	}{
		{"network keyword in title", "Network outage", "building A", CategoryNetwork},
		{"vpn keyword", "VPN drops every hour", "remote staff affected", CategoryNetwork},
		{"wifi keyword in description", "No connectivity", "office wifi is down", CategoryNetwork},
		{"server keyword", "Server unreachable", "host does not respond", CategoryInfra},
		{"database keyword", "Database timeouts", "queries hang", CategoryInfra},
		{"db substring", "db migration stuck", "", CategoryInfra},
		{"bug keyword", "Bug in export", "CSV columns shifted", CategorySoftware},
		{"error keyword", "Error on save", "stack trace attached", CategorySoftware},
		{"ui keyword", "UI misaligned", "buttons overlap", CategorySoftware},
		{"app keyword", "App crashes", "on startup", CategorySoftware},
		{"no keyword", "Broken chair", "third floor", CategoryGeneral},
		{"empty text", "", "", CategoryGeneral},
		{"case insensitive", "NETWORK DOWN", "", CategoryNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.title, tc.description))
		})
	}
}

func TestCategorizeFirstRuleWins(t *testing.T) {
	// Network outranks Infra even when the Infra keyword appears first in
	// the text.
	assert.Equal(t, CategoryNetwork, Categorize("Database and VPN both down", ""))
	assert.Equal(t, CategoryNetwork, Categorize("", "server room wifi flaky"))
	assert.Equal(t, CategoryInfra, Categorize("App server down", ""))
}

func TestBuildVector(t *testing.T) {
	vector := BuildVector("VPN broken", "cannot reach internal services", "Network")

	assert.Equal(t, "VPN broken", vector.Title)
	assert.Equal(t, "cannot reach internal services", vector.Description)
	assert.Equal(t, "Network", vector.GroupName)
	assert.Equal(t, CategoryNetwork, vector.Category)
}
