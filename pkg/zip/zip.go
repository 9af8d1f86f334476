package zip

import (
	"archive/zip"
	"bytes"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets bundles the assets into an in-memory zip, appending a file
// extension derived from the MIME type when the name has none.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(filename(asset))
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

func filename(asset Asset) string {
	name := asset.Filename
	if strings.Contains(name, ".") {
		return name
	}
	switch strings.ToLower(asset.MIME) {
	case "image/png":
		return name + ".png"
	default:
		return name + ".jpg"
	}
}
