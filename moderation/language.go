package moderation

import "github.com/abadojack/whatlanggo"

// DetectLanguage returns the ISO 639-3 code of the text's most likely
// language, or "und" when detection is not confident enough to be useful.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "und"
	}
	return info.Lang.Iso6393()
}
