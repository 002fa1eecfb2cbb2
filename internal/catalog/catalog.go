// Package catalog provides the static template catalog for Voiceboard.
//
// Each template describes one business vertical: a seed profile,
// greeting and instruction text, and the recommended set of tool and
// integration blocks. Pure data, no behavior beyond lookup.
package catalog

import "strings"

// PlaceholderToken is the literal token in seed text that instantiation
// replaces with the operator's business name.
const PlaceholderToken = "{business_name}"

// SeedTool is one recommended tool block of a template.
type SeedTool struct {
	ToolType string
	Label    string
}

// SeedIntegration is one recommended integration block of a template.
type SeedIntegration struct {
	IntegrationType string
	Platform        string
	Label           string
}

// Template is a named starting configuration for a business vertical.
type Template struct {
	ID                string
	Name              string
	BusinessType      string
	BusinessTypeLabel string
	Description       string
	Voice             string
	Language          string
	FirstMessage      string
	Instructions      string
	Tools             []SeedTool
	Integrations      []SeedIntegration
}

// Render substitutes the business name into a seed string.
func Render(seed, businessName string) string {
	return strings.ReplaceAll(seed, PlaceholderToken, businessName)
}

var templates = []Template{
	{
		ID:                "restaurant",
		Name:              "Restaurant",
		BusinessType:      "restaurant",
		BusinessTypeLabel: "Restaurant",
		Description:       "Take orders, answer menu questions, and manage reservations over the phone.",
		Voice:             "alloy",
		Language:          "en",
		FirstMessage:      "Thank you for calling " + PlaceholderToken + "! How can I help you today?",
		Instructions: "You are the phone assistant for " + PlaceholderToken + ", a restaurant. " +
			"Greet callers warmly, help them place orders, answer questions about the menu, " +
			"and take reservations. Confirm order details and a contact number before hanging up.",
		Tools: []SeedTool{
			{ToolType: "take-order", Label: "Take Order"},
			{ToolType: "menu", Label: "Menu"},
			{ToolType: "answer-questions", Label: "Answer Questions"},
			{ToolType: "make-reservation", Label: "Make Reservation"},
			{ToolType: "business-hours", Label: "Business Hours"},
		},
	},
	{
		ID:                "salon",
		Name:              "Salon & Spa",
		BusinessType:      "salon",
		BusinessTypeLabel: "Salon & Spa",
		Description:       "Book appointments and answer questions about services and pricing.",
		Voice:             "shimmer",
		Language:          "en",
		FirstMessage:      "Hi, you've reached " + PlaceholderToken + ". Would you like to book an appointment?",
		Instructions: "You are the phone assistant for " + PlaceholderToken + ", a salon. " +
			"Help callers book, reschedule, or cancel appointments and answer questions about " +
			"services, stylists, and pricing.",
		Tools: []SeedTool{
			{ToolType: "book-appointment", Label: "Book Appointment"},
			{ToolType: "answer-questions", Label: "Answer Questions"},
			{ToolType: "business-hours", Label: "Business Hours"},
		},
		Integrations: []SeedIntegration{
			{IntegrationType: "calendar", Platform: "google-calendar", Label: "Google Calendar"},
		},
	},
	{
		ID:                "clinic",
		Name:              "Medical Clinic",
		BusinessType:      "clinic",
		BusinessTypeLabel: "Medical Clinic",
		Description:       "Schedule visits, share office hours, and route urgent calls.",
		Voice:             "echo",
		Language:          "en",
		FirstMessage:      "Thank you for calling " + PlaceholderToken + ". How may I assist you?",
		Instructions: "You are the phone assistant for " + PlaceholderToken + ", a medical clinic. " +
			"Help callers schedule or change appointments and answer questions about office hours " +
			"and location. Never give medical advice; for emergencies, tell the caller to hang up " +
			"and dial emergency services.",
		Tools: []SeedTool{
			{ToolType: "book-appointment", Label: "Schedule Visit"},
			{ToolType: "answer-questions", Label: "Answer Questions"},
			{ToolType: "business-hours", Label: "Office Hours"},
		},
	},
	{
		ID:                "retail",
		Name:              "Retail Store",
		BusinessType:      "retail",
		BusinessTypeLabel: "Retail Store",
		Description:       "Answer product questions, check store hours, and take phone orders.",
		Voice:             "alloy",
		Language:          "en",
		FirstMessage:      "Thanks for calling " + PlaceholderToken + "! What can I help you find today?",
		Instructions: "You are the phone assistant for " + PlaceholderToken + ", a retail store. " +
			"Answer questions about products, availability, and store hours, and take simple " +
			"phone orders for pickup.",
		Tools: []SeedTool{
			{ToolType: "order", Label: "Take Order"},
			{ToolType: "faq", Label: "Answer Questions"},
			{ToolType: "business-hours", Label: "Store Hours"},
		},
	},
}

// All returns every template in the catalog.
func All() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Lookup returns the template with the given id.
func Lookup(id string) (*Template, bool) {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], true
		}
	}
	return nil, false
}

// LookupByBusinessType returns the first template matching a business
// type, used when resuming a record that has no persisted node array.
func LookupByBusinessType(businessType string) (*Template, bool) {
	for i := range templates {
		if templates[i].BusinessType == businessType {
			return &templates[i], true
		}
	}
	return nil, false
}

// BusinessTypeLabel resolves a machine business type to its human
// readable name, falling back to the raw value.
func BusinessTypeLabel(businessType string) string {
	if tpl, ok := LookupByBusinessType(businessType); ok {
		return tpl.BusinessTypeLabel
	}
	return businessType
}
