// Package advisor answers free-text disaster-preparedness questions with canned
// guidance selected by keyword rules.
package advisor

import "strings"

// DefaultReply is returned when no rule matches.
const DefaultReply = "I'm not sure how to help with that. Could you provide more details?"

// Rule pairs a predicate over the lowercased message with its reply.
type Rule struct {
	Match func(message string) bool
	Reply string
}

// DefaultRules are evaluated in order; the first match wins.
var DefaultRules = []Rule{
	{
		Match: containsAny("flood"),
		Reply: "In case of flooding, move to higher ground immediately. Don't walk or drive through floodwaters. " +
			"Six inches of water can knock you down, and one foot of moving water can sweep your vehicle away.",
	},
	{
		Match: containsAny("earthquake"),
		Reply: "During an earthquake, drop to the ground, take cover under a sturdy desk or table, and hold on " +
			"until the shaking stops. Stay away from windows and exterior walls.",
	},
	{
		Match: containsAny("shelter", "camp"),
		Reply: "Active shelters and base camps are listed on the map. Look for the home icons to locate the closest ones.",
	},
	{
		Match: containsAny("emergency", "help"),
		Reply: "For immediate emergency assistance, please use the SOS button at the top of the page or call 1-800-DISASTER.",
	},
	{
		Match: containsAny("volunteer"),
		Reply: "Thank you for your interest in volunteering! Please sign up or log in and select 'Volunteer' as your role.",
	},
	{
		Match: containsAny("donate"),
		Reply: "To make donations, please sign up or log in and select 'Donor' as your role.",
	},
}

// Respond answers message using DefaultRules.
func Respond(message string) string {
	return RespondWith(DefaultRules, message)
}

// RespondWith answers message with the first matching rule, or DefaultReply.
func RespondWith(rules []Rule, message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return DefaultReply
	}
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Reply
		}
	}
	return DefaultReply
}

func containsAny(keywords ...string) func(string) bool {
	return func(message string) bool {
		for _, k := range keywords {
			if strings.Contains(message, k) {
				return true
			}
		}
		return false
	}
}
