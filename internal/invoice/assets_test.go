package invoice

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestAssetLoaderNothingFound(t *testing.T) {
	loader := NewAssetLoader(fstest.MapFS{}, logging.Discard())
	assets := loader.Load()

	assert.Nil(t, assets.Logo)
	assert.Nil(t, assets.Watermark)
	assert.Nil(t, assets.Signature)
	assert.Equal(t, []AssetKind{AssetLogo, AssetWatermark, AssetSignature}, assets.Missing())
}

func TestAssetLoaderFirstCandidateWins(t *testing.T) {
	fsys := fstest.MapFS{
		"pal_logo_full.png":        {Data: append([]byte{}, pngHeader...)},
		"images/pal_logo.png":      {Data: []byte("images")},
		"assets/pal_logo_icon.png": {Data: append([]byte{}, pngHeader...)},
		"signature.png":            {Data: append([]byte{}, pngHeader...)},
		"assets/signature.png":     {Data: []byte("later")},
	}
	assets := NewAssetLoader(fsys, logging.Discard()).Load()

	require.NotNil(t, assets.Logo)
	assert.Equal(t, "pal_logo_full.png", assets.Logo.Path)
	require.NotNil(t, assets.Watermark)
	assert.Equal(t, "assets/pal_logo_icon.png", assets.Watermark.Path)
	require.NotNil(t, assets.Signature)
	assert.Equal(t, "signature.png", assets.Signature.Path)
	assert.Empty(t, assets.Missing())
}

func TestAssetLoaderSkipsEmptyFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"pal_logo.png":        {Data: nil},
		"images/pal_logo.png": {Data: append([]byte{}, pngHeader...)},
	}
	assets := NewAssetLoader(fsys, logging.Discard()).Load()

	require.NotNil(t, assets.Logo)
	assert.Equal(t, "images/pal_logo.png", assets.Logo.Path)
}

func TestAssetLoaderSkipsDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"signature.png/keep":         {Data: []byte("x")},
		"dr_bhuvana_signature.png/x": {Data: []byte("x")},
	}
	assets := NewAssetLoader(fsys, logging.Discard()).Load()
	assert.Nil(t, assets.Signature)
}

func TestNewAssetSniffsMIMEType(t *testing.T) {
	png := NewAsset("a.png", pngHeader)
	assert.Equal(t, "image/png", png.MIMEType)

	jpeg := NewAsset("a.png", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))
	assert.Equal(t, "image/jpeg", jpeg.MIMEType)

	unknown := NewAsset("a.png", []byte("not an image"))
	assert.Equal(t, "image/png", unknown.MIMEType)
}

func TestAssetDataURI(t *testing.T) {
	a := &Asset{MIMEType: "image/png", Data: []byte("hi")}
	assert.Equal(t, "data:image/png;base64,aGk=", a.DataURI())
}

func TestPlaceholderLogoURI(t *testing.T) {
	uri := PlaceholderLogoURI()
	assert.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))
	assert.Equal(t, uri, PlaceholderLogoURI())
}
