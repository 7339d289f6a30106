package domain

// FontOption describes one downloadable Unicode font for PDF export.
type FontOption struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FileName   string   `json:"fileName"`
	URL        string   `json:"url"`
	Languages  []string `json:"languages"`
	Downloaded bool     `json:"downloaded"`
	LocalPath  string   `json:"localPath,omitempty"`
}

const notoBaseURL = "https://raw.githubusercontent.com/notofonts/notofonts.github.io/main/fonts/"

func notoFont(id, name, family string, languages ...string) FontOption {
	file := family + "-Regular.ttf"
	return FontOption{
		ID:        id,
		Name:      name,
		FileName:  file,
		URL:       notoBaseURL + family + "/hinted/ttf/" + file,
		Languages: languages,
	}
}

// FontCatalog covers the scripts of every translation target.
var FontCatalog = []FontOption{
	notoFont("devanagari", "Noto Sans Devanagari", "NotoSansDevanagari", "hi", "mr"),
	notoFont("tamil", "Noto Sans Tamil", "NotoSansTamil", "ta"),
	notoFont("telugu", "Noto Sans Telugu", "NotoSansTelugu", "te"),
	notoFont("bengali", "Noto Sans Bengali", "NotoSansBengali", "bn"),
	notoFont("gujarati", "Noto Sans Gujarati", "NotoSansGujarati", "gu"),
	notoFont("gurmukhi", "Noto Sans Gurmukhi", "NotoSansGurmukhi", "pa"),
	notoFont("malayalam", "Noto Sans Malayalam", "NotoSansMalayalam", "ml"),
	notoFont("kannada", "Noto Sans Kannada", "NotoSansKannada", "kn"),
	notoFont("urdu", "Noto Nastaliq Urdu", "NotoNastaliqUrdu", "ur"),
	notoFont("latin", "Noto Sans", "NotoSans", "en"),
}

// FontForLanguage returns the catalog font covering a translation code.
func FontForLanguage(code string) (FontOption, bool) {
	code = ResolveTranslationLanguage(code)
	for _, font := range FontCatalog {
		for _, lang := range font.Languages {
			if lang == code {
				return font, true
			}
		}
	}
	return FontOption{}, false
}
