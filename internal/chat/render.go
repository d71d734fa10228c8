package chat

import (
	"fmt"
	"strings"

	"health-chatbot/internal/chatbot"
)

const disclaimer = "⚠️ **Disclaimer:** This information is for educational purposes only. " +
	"Always consult a healthcare professional for medical advice and diagnosis."

// Render turns a classification result into the text shown to the user.
func Render(r chatbot.Result) string {
	switch v := r.(type) {
	case chatbot.Emergency:
		return fmt.Sprintf("⚠️ EMERGENCY DETECTED: %s\n\n", v.Keyword) +
			"🚨 Please seek immediate medical attention!\n\n" +
			"📞 Emergency Numbers:\n" +
			"• India: 112 / 108\n" +
			"• US: 911\n" +
			"• UK: 999\n\n" +
			"If you are experiencing a medical emergency, please call emergency services or go to the nearest hospital immediately."

	case chatbot.Greeting:
		return "👋 Hello! I'm your Health Information Assistant.\n\n" +
			"Simply type any disease name to get information about its symptoms and prevention.\n\n" +
			"Examples:\n" +
			"• Type \"diabetes\" to learn about diabetes\n" +
			"• Type \"covid\" for COVID-19 information\n" +
			"• Type \"malaria\" for malaria details\n\n" +
			"What disease would you like to know about?"

	case chatbot.Help:
		return "📚 Available Diseases in Database:\n\n" +
			bullets(v.Diseases) + "\n\n" +
			"Just type the disease name to get symptoms and prevention information!"

	case chatbot.DiseaseInfo:
		d := v.Record
		return fmt.Sprintf("📋 **%s**\n\n", d.Name) +
			fmt.Sprintf("🤒 **SYMPTOMS:**\n%s\n\n", d.Symptoms) +
			fmt.Sprintf("🛡️ **PREVENTION:**\n%s\n\n", d.Prevention) +
			disclaimer

	case chatbot.NotFound:
		head := fmt.Sprintf("❌ Disease \"%s\" not found in database.\n\n", v.Query)
		if len(v.Suggestions) > 0 {
			return head +
				"Did you mean:\n" + bullets(v.Suggestions) + "\n\n" +
				"Type \"help\" or \"list\" to see all available diseases."
		}
		return head +
			"Type \"help\" or \"list\" to see all available diseases.\n\n" +
			"Available diseases include: COVID-19, Dengue, Diabetes, Malaria, Tuberculosis, and many more!"

	default:
		return ""
	}
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}
