package estimate

import "strings"

// Category is the inferred incident type fed to the estimator.
type Category string

const (
	CategoryNetwork  Category = "Network"
	CategoryInfra    Category = "Infra"
	CategorySoftware Category = "Software"
	CategoryGeneral  Category = "General"
)

// categoryRules is an ordered keyword policy over the lowercased
// title+description text. First match wins, so "VPN and database both down"
// derives Network, not Infra.
var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryNetwork, []string{"network", "vpn", "wifi"}},
	{CategoryInfra, []string{"server", "database", "db"}},
	{CategorySoftware, []string{"bug", "error", "ui", "app"}},
}

// Categorize derives the incident category from its free text.
func Categorize(title, description string) Category {
	text := strings.ToLower(title + " " + description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// Vector is the feature shape the estimator expects. It is derived on
// demand and never persisted as incident state.
type Vector struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	GroupName   string   `json:"group"`
	Category    Category `json:"type"`
}

// BuildVector composes the derived category with the raw incident fields.
func BuildVector(title, description, groupName string) Vector {
	return Vector{
		Title:       title,
		Description: description,
		GroupName:   groupName,
		Category:    Categorize(title, description),
	}
}
