package uiassets

import (
	"embed"
	"io/fs"
)

// dist 为会战面板静态页，随二进制一起发布
//
//go:embed all:dist
var embedded embed.FS

func FS() fs.FS {
	sub, err := fs.Sub(embedded, "dist")
	if err != nil {
		return embedded
	}
	return sub
}
