package invoice

import (
	"encoding/base64"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

// AssetKind names one of the three optional branding images.
type AssetKind string

const (
	AssetLogo      AssetKind = "logo"
	AssetWatermark AssetKind = "watermark"
	AssetSignature AssetKind = "signature"
)

// Candidate paths, probed in order relative to the working directory.
var (
	LogoCandidates = []string{
		"pal_logo.png",
		"pal_logo_full.png",
		"assets/pal_logo.png",
		"images/pal_logo.png",
	}
	WatermarkCandidates = []string{
		"pal_logo_icon.png",
		"watermark_logo.png",
		"pal_pal_logo_icon.png",
		"assets/pal_logo_icon.png",
		"images/pal_logo_icon.png",
	}
	SignatureCandidates = []string{
		"dr_bhuvana_signature.png",
		"signature.png",
		"assets/signature.png",
		"images/signature.png",
	}
)

// Asset is one loaded image.
type Asset struct {
	Path     string
	MIMEType string
	Data     []byte
}

// NewAsset wraps raw image bytes, sniffing the MIME type (PNG when unknown).
func NewAsset(path string, data []byte) *Asset {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return &Asset{Path: path, MIMEType: mime, Data: data}
}

// DataURI returns the asset as an inline data: URI.
func (a *Asset) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Assets is the result of one probe pass. Nil fields are absent.
type Assets struct {
	Logo      *Asset
	Watermark *Asset
	Signature *Asset
}

// Missing lists the kinds that were not found.
func (a Assets) Missing() []AssetKind {
	var out []AssetKind
	if a.Logo == nil {
		out = append(out, AssetLogo)
	}
	if a.Watermark == nil {
		out = append(out, AssetWatermark)
	}
	if a.Signature == nil {
		out = append(out, AssetSignature)
	}
	return out
}

// AssetLoader probes a filesystem for branding images.
type AssetLoader struct {
	fsys   fs.FS
	logger *logging.Logger
}

// NewAssetLoader creates a loader over fsys. A nil fsys probes the process
// working directory.
func NewAssetLoader(fsys fs.FS, logger *logging.Logger) *AssetLoader {
	if fsys == nil {
		fsys = os.DirFS(".")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AssetLoader{fsys: fsys, logger: logger}
}

// Load probes all three candidate lists. It never fails: unreadable or empty
// files count as absent.
func (l *AssetLoader) Load() Assets {
	return Assets{
		Logo:      l.probe(AssetLogo, LogoCandidates),
		Watermark: l.probe(AssetWatermark, WatermarkCandidates),
		Signature: l.probe(AssetSignature, SignatureCandidates),
	}
}

func (l *AssetLoader) probe(kind AssetKind, candidates []string) *Asset {
	for _, path := range candidates {
		data, err := fs.ReadFile(l.fsys, path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("asset unreadable, skipping", "asset", string(kind), "path", path, "error", err)
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		return NewAsset(path, data)
	}
	return nil
}
