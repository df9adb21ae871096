package invoice

import "encoding/base64"

// placeholderLogoSVG stands in for the clinic logo until branding assets are
// installed: a teal-to-green disc with a white checkmark and a "PAL" caption.
const placeholderLogoSVG = `<svg width="200" height="200" viewBox="0 0 200 200" xmlns="http://www.w3.org/2000/svg">
<defs>
<linearGradient id="grad1" x1="0%" y1="0%" x2="100%" y2="100%">
<stop offset="0%" style="stop-color:#30b392;stop-opacity:1" />
<stop offset="100%" style="stop-color:#27ae60;stop-opacity:1" />
</linearGradient>
</defs>
<circle cx="100" cy="100" r="80" fill="url(#grad1)"/>
<path d="M 70 100 L 90 120 L 130 70" stroke="white" stroke-width="12" fill="none" stroke-linecap="round"/>
<text x="100" y="180" text-anchor="middle" fill="white" font-size="24" font-weight="bold">PAL</text>
</svg>`

var placeholderLogoURI = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderLogoSVG))

// PlaceholderLogoURI returns the synthesized logo as a data: URI.
func PlaceholderLogoURI() string {
	return placeholderLogoURI
}
