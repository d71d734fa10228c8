package chatbot

// MaxSuggestions caps the names offered when no disease matches.
const MaxSuggestions = 5

var (
	// EmergencyKeywords is ordered by reporting priority.
	EmergencyKeywords = []string{
		"chest pain", "heart attack", "stroke", "breathing problem",
		"difficulty breathing", "can't breathe", "suicide", "kill myself",
		"severe bleeding", "unconscious", "seizure", "choking",
		"severe headache", "paralysis", "severe pain",
	}

	Greetings = []string{
		"hello", "hi", "hey", "greetings",
		"good morning", "good afternoon", "good evening",
	}

	// StopWords are removed from a query before disease matching, in this order.
	StopWords = []string{
		"what", "is", "tell", "me", "about", "information", "on", "explain",
		"describe", "details", "of", "the", "a", "an", "?", "prevention",
		"symptoms", "for", "give", "show",
	}

	helpWords = []string{"help", "list"}
)
