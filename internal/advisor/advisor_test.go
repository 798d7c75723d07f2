package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"flood", "What should I do in a FLOOD?", DefaultRules[0].Reply},
		{"earthquake", "earthquake tips", DefaultRules[1].Reply},
		{"shelter", "where is the nearest shelter", DefaultRules[2].Reply},
		{"camp", "relief camp near me", DefaultRules[2].Reply},
		{"emergency", "this is an emergency", DefaultRules[3].Reply},
		{"help", "please help", DefaultRules[3].Reply},
		{"volunteer", "I want to volunteer", DefaultRules[4].Reply},
		{"donate", "how can I donate", DefaultRules[5].Reply},
		{"unknown", "what's the weather like", DefaultReply},
		{"empty", "   ", DefaultReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Respond(tt.message))
		})
	}
}

func TestRespond_FirstMatchWins(t *testing.T) {
	// Mentions both flood and shelter; flood is checked first.
	assert.Equal(t, DefaultRules[0].Reply, Respond("Is there a shelter safe from the flood?"))
	// "help" outranks "volunteer".
	assert.Equal(t, DefaultRules[3].Reply, Respond("I want to help as a volunteer"))
}

func TestRespondWith_CustomRules(t *testing.T) {
	rules := []Rule{
		{Match: containsAny("cyclone"), Reply: "Stay indoors."},
	}
	assert.Equal(t, "Stay indoors.", RespondWith(rules, "Cyclone warning"))
	assert.Equal(t, DefaultReply, RespondWith(rules, "flood"))
	assert.Equal(t, DefaultReply, RespondWith(nil, "flood"))
}
