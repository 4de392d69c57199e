package ai

import "strings"

const defaultLanguage = "English"

var countryLanguages = map[string]string{
	"us": "English", "gb": "English", "uk": "English", "ca": "English", "au": "English",
	"nz": "English", "ie": "English", "za": "English", "in": "English", "sg": "English",
	"de": "German", "at": "German", "ch": "German",
	"fr": "French", "be": "French", "lu": "French",
	"es": "Spanish", "mx": "Spanish", "ar": "Spanish", "co": "Spanish", "cl": "Spanish", "pe": "Spanish",
	"it": "Italian",
	"pt": "Portuguese", "br": "Portuguese",
	"nl": "Dutch",
	"se": "Swedish", "no": "Norwegian", "dk": "Danish", "fi": "Finnish", "is": "Icelandic",
	"pl": "Polish", "cz": "Czech", "sk": "Slovak", "hu": "Hungarian", "ro": "Romanian", "bg": "Bulgarian",
	"gr": "Greek", "tr": "Turkish",
	"ua": "Ukrainian", "ru": "Russian", "by": "Belarusian",
	"ee": "Estonian", "lv": "Latvian", "lt": "Lithuanian",
	"hr": "Croatian", "rs": "Serbian", "si": "Slovenian",
	"il": "Hebrew", "sa": "Arabic", "ae": "Arabic", "eg": "Arabic",
	"jp": "Japanese", "kr": "Korean", "cn": "Chinese", "tw": "Chinese", "hk": "Chinese",
	"th": "Thai", "vn": "Vietnamese", "id": "Indonesian", "my": "Malay", "ph": "Filipino",
}

// LanguageFor returns the language of the first country code it recognises,
// or English.
func LanguageFor(countries []string) string {
	for _, c := range countries {
		if lang, ok := countryLanguages[strings.ToLower(strings.TrimSpace(c))]; ok {
			return lang
		}
	}
	return defaultLanguage
}

func NeedsTranslation(language string) bool {
	return language != defaultLanguage
}
