package language

import (
	"errors"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Auto defers language choice to the engine's own detection pass.
const Auto = "auto"

type entry struct {
	code    string
	code3   string
	alt3    string
	display string
	words   []string
}

// Languages the engine sees most often. The x/text fallback in Normalize
// covers the long tail; these resolve without parsing and carry the name
// forms users actually type.
var table = []entry{
	{code: "en", code3: "eng", display: "English", words: []string{"english"}},
	{code: "zh", code3: "zho", alt3: "chi", display: "Chinese", words: []string{"chinese", "mandarin"}},
	{code: "ja", code3: "jpn", display: "Japanese", words: []string{"japanese"}},
	{code: "ko", code3: "kor", display: "Korean", words: []string{"korean"}},
	{code: "es", code3: "spa", display: "Spanish", words: []string{"spanish", "castilian"}},
	{code: "fr", code3: "fra", alt3: "fre", display: "French", words: []string{"french"}},
	{code: "de", code3: "deu", alt3: "ger", display: "German", words: []string{"german"}},
	{code: "it", code3: "ita", display: "Italian", words: []string{"italian"}},
	{code: "pt", code3: "por", display: "Portuguese", words: []string{"portuguese"}},
	{code: "ru", code3: "rus", display: "Russian", words: []string{"russian"}},
	{code: "ar", code3: "ara", display: "Arabic", words: []string{"arabic"}},
	{code: "hi", code3: "hin", display: "Hindi", words: []string{"hindi"}},
	{code: "nl", code3: "nld", alt3: "dut", display: "Dutch", words: []string{"dutch", "flemish"}},
	{code: "pl", code3: "pol", display: "Polish", words: []string{"polish"}},
	{code: "sv", code3: "swe", display: "Swedish", words: []string{"swedish"}},
	{code: "tr", code3: "tur", display: "Turkish", words: []string{"turkish"}},
	{code: "vi", code3: "vie", display: "Vietnamese", words: []string{"vietnamese"}},
	{code: "th", code3: "tha", display: "Thai", words: []string{"thai"}},
	{code: "id", code3: "ind", display: "Indonesian", words: []string{"indonesian"}},
	{code: "uk", code3: "ukr", display: "Ukrainian", words: []string{"ukrainian"}},
}

var (
	byCode  = make(map[string]entry, len(table))
	byCode3 = make(map[string]entry, 2*len(table))
	byWord  = make(map[string]entry, 2*len(table))
)

func init() {
	for _, e := range table {
		byCode[e.code] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, word := range e.words {
			byWord[word] = e
		}
	}
}

// Normalize maps a user-supplied language identifier to the two-letter code
// the recognition engine expects. Auto passes through unchanged. Identifiers
// outside the table go through BCP 47 parsing, so regional tags like "zh-CN"
// reduce to their base language.
func Normalize(input string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	if value == "" {
		return "", errors.New("language is empty")
	}
	if value == Auto {
		return Auto, nil
	}
	if e, ok := byCode[value]; ok {
		return e.code, nil
	}
	if e, ok := byCode3[value]; ok {
		return e.code, nil
	}
	if e, ok := byWord[value]; ok {
		return e.code, nil
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q", input)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", fmt.Errorf("unrecognized language %q", input)
	}
	code := strings.ToLower(base.String())
	if e, ok := byCode3[code]; ok {
		return e.code, nil
	}
	return code, nil
}

// Display returns a human-readable name for a normalized code. Codes outside
// the table come back unchanged so callers can always print something.
func Display(code string) string {
	value := strings.ToLower(strings.TrimSpace(code))
	if value == Auto {
		return "auto-detect"
	}
	if e, ok := byCode[value]; ok {
		return e.display
	}
	return code
}
