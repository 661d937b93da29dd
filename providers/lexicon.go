package providers

import (
	"fmt"
	"strings"
)

// lexicon is the last-resort offline translation table. It only covers a
// handful of greeting-level phrases; anything else gets a marked
// placeholder so the caller can tell no real translation happened.
var lexicon = map[string]map[string]string{
	"hello": {
		"chinese": "你好",
		"spanish": "hola",
		"french":  "bonjour",
	},
	"goodbye": {
		"chinese": "再见",
		"spanish": "adiós",
		"french":  "au revoir",
	},
	"thank you": {
		"chinese": "谢谢",
		"spanish": "gracias",
		"french":  "merci",
	},
	"yes": {
		"chinese": "是",
		"spanish": "sí",
		"french":  "oui",
	},
	"no": {
		"chinese": "不",
		"spanish": "no",
		"french":  "non",
	},
}

func lexiconTranslate(text, targetLanguage string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	if byLang, ok := lexicon[key]; ok {
		if out, ok := byLang[strings.ToLower(strings.TrimSpace(targetLanguage))]; ok {
			return out
		}
	}
	return fmt.Sprintf("[Translation to %s]: %s", targetLanguage, text)
}
