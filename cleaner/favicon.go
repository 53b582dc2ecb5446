package cleaner

// FaviconURL derives a stable favicon URL for a domain. Used as the image
// of last resort so every link card renders something.
func FaviconURL(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + domain + "&sz=128"
}
