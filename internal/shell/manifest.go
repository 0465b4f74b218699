package shell

// WebManifest is the web app manifest served to browsers
type WebManifest struct {
	Name            string `json:"name"`
	ShortName       string `json:"short_name"`
	Description     string `json:"description"`
	StartURL        string `json:"start_url"`
	Scope           string `json:"scope"`
	Display         string `json:"display"`
	Orientation     string `json:"orientation"`
	BackgroundColor string `json:"background_color"`
	ThemeColor      string `json:"theme_color"`
	Lang            string `json:"lang"`
}

func Manifest() WebManifest {
	return WebManifest{
		Name:            "NewsInsight",
		ShortName:       "NI",
		Description:     "AI se Hindi news posts banayein aur download karein.",
		StartURL:        "/",
		Scope:           "/",
		Display:         "standalone",
		Orientation:     "portrait",
		BackgroundColor: "#020617",
		ThemeColor:      "#ec4899",
		Lang:            "hi-IN",
	}
}
