package chat

import "fmt"

// TipCategories are the tourist-guide cards requested from the model, with
// the icon each must use.
var TipCategories = []struct {
	Title string
	Icon  string
}{
	{"Best Time to Visit", "calendar"},
	{"Local Transportation", "car"},
	{"Must-Try Foods", "restaurant"},
	{"Cultural Etiquette", "people"},
	{"Popular Attractions", "compass"},
	{"Safety Tips", "shield-checkmark"},
}

func getTouristTipsPrompt(location string) string {
	categories := ""
	for i, c := range TipCategories {
		categories += fmt.Sprintf("\n    %d. %q - use icon: %q", i+1, c.Title, c.Icon)
	}
	return fmt.Sprintf(`Generate tourist tips for %s. Format the response as a JSON array with objects containing title, icon, and content fields. Each object should have this structure:
    {
      "title": "Category name",
      "icon": "icon-name",
      "content": "Detailed information"
    }

    Use these exact categories and their corresponding icon names:%s

    Return ONLY the JSON array, no other text. Make sure to use the exact icon names provided.`, location, categories)
}

func getInterpretQueryPrompt(query string) string {
	return fmt.Sprintf(`Convert this natural language query into a structured search intent for finding places: %q
    Return ONLY a JSON object in this format:
    {
      "type": "cafe|restaurant|store|etc",
      "keywords": ["keyword1", "keyword2"],
      "requirements": ["requirement1", "requirement2"]
    }`, query)
}
