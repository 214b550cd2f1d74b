package locator

import "strings"

// Supported caller languages.
const (
	LanguageEnglish = "english"
	LanguageMarathi = "marathi"
	LanguageHindi   = "hindi"
)

// DefaultLanguageMessage accompanies the language-reselection directive.
const DefaultLanguageMessage = "Please select your preferred language."

var jurisdictionErrors = map[string]string{
	LanguageEnglish: "The location you entered is outside the jurisdiction of Nashik Gramin Police.\n" +
		"Please enter a valid location within our jurisdiction.",
	LanguageMarathi: "आपण दिलेले ठिकाण नाशिक ग्रामीण पोलीसांच्या कार्यक्षेत्राबाहेर आहे.\n" +
		"कृपया आमच्या कार्यक्षेत्रातील वैध ठिकाण प्रविष्ट करा",
	LanguageHindi: "आपके द्वारा दिया गया स्थान नाशिक ग्रामीण पुलिस के अधिकार क्षेत्र से बाहर है।\n" +
		"कृपया हमारे अधिकार क्षेत्र में कोई मान्य स्थान दर्ज करें",
}

// JurisdictionError is the one message a caller sees when no location could
// be resolved. Unknown languages get the Marathi text.
func JurisdictionError(language string) string {
	if msg, ok := jurisdictionErrors[strings.ToLower(strings.TrimSpace(language))]; ok {
		return msg
	}
	return jurisdictionErrors[LanguageMarathi]
}

// StationNotFound is the get_police_station reply when no village matches.
const StationNotFound = "station details not found please try again"

// isLanguageReset matches the "0" key in Latin or Devanagari digits.
func isLanguageReset(text string) bool {
	switch strings.TrimSpace(text) {
	case "0", "०":
		return true
	}
	return false
}
