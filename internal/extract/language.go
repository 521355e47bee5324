package extract

import "strings"

// Language tags for the heuristics; only English and German documents are
// recognized, with English as the fallback.
const (
	LangEnglish = "en"
	LangGerman  = "de"
)

var germanMarkers = []string{"gesamtwert", "mwst", "kundennummer", "bestellung", "artikelbeschreibung", "menge"}

var englishMarkers = []string{"invoice", "total", "tax", "quantity", "description"}

// DetectLanguage guesses the document language from keyword frequency.
func DetectLanguage(text string) string {
	low := strings.ToLower(text)
	germanCount := 0
	for _, w := range germanMarkers {
		if strings.Contains(low, w) {
			germanCount++
		}
	}
	englishCount := 0
	for _, w := range englishMarkers {
		if strings.Contains(low, w) {
			englishCount++
		}
	}
	if germanCount >= englishCount && germanCount > 0 {
		return LangGerman
	}
	return LangEnglish
}
