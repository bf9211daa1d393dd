// Package channel names the two storefronts that share one catalog.
package channel

import "strings"

type Channel string

const (
	Wholesale Channel = "purelinen"   // B2B site, wholesale tier
	Retail    Channel = "linenthings" // retail site
)

func All() []Channel { return []Channel{Wholesale, Retail} }

// Parse matches free text such as a sales_channel column case-insensitively
// against the store literals.
func Parse(s string) (Channel, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, " ", "")
	switch {
	case strings.Contains(v, string(Wholesale)):
		return Wholesale, true
	case strings.Contains(v, string(Retail)):
		return Retail, true
	}
	return "", false
}

// Tier is the price tier name a channel is billed at.
func (c Channel) Tier() string {
	switch c {
	case Wholesale:
		return "wholesale"
	case Retail:
		return "retail"
	}
	return string(c)
}

func (c Channel) Valid() bool { return c == Wholesale || c == Retail }
