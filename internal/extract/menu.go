// Package extract turns free text from the document extraction
// service into structured menu items.
package extract

import (
	"regexp"
	"strings"

	"github.com/sungrove/voiceboard-go/internal/canvas"
)

// priceRe matches a trailing price token like "$10", "$10.99" or
// "10.99".
var priceRe = regexp.MustCompile(`\$?\s*(\d+(?:[.,]\d{1,2})?)\s*$`)

// separatorTrim removes the name/price separator run left after the
// price token is cut off.
var separatorTrim = regexp.MustCompile(`[\s.\-–—:…]+$`)

// ParseMenuText parses extracted document text into menu items using
// a line-oriented heuristic: lines ending with ":" or written in all
// caps open a category; remaining lines are items of the form
// "name [separator] $price", falling back to a name-only item when no
// price token is present.
func ParseMenuText(text string) []canvas.MenuItem {
	var items []canvas.MenuItem
	category := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, ok := categoryHeader(line); ok {
			category = name
			continue
		}

		item := canvas.MenuItem{Category: category}
		if loc := priceRe.FindStringSubmatchIndex(line); loc != nil && loc[0] > 0 {
			item.Price = "$" + strings.ReplaceAll(line[loc[2]:loc[3]], ",", ".")
			item.Name = separatorTrim.ReplaceAllString(line[:loc[0]], "")
		} else {
			item.Name = line
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// categoryHeader reports whether the line opens a menu category.
func categoryHeader(line string) (string, bool) {
	if strings.HasSuffix(line, ":") {
		return strings.TrimSpace(strings.TrimSuffix(line, ":")), true
	}
	if isAllCaps(line) && !strings.ContainsAny(line, "$0123456789") {
		return line, true
	}
	return "", false
}

// isAllCaps reports whether the line contains letters and none of
// them are lowercase.
func isAllCaps(line string) bool {
	hasLetter := false
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
