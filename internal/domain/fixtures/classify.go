package fixtures

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/utils"
)

// FileType is the display classification of a file name
type FileType struct {
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var unknownType = FileType{Type: "unknown", Icon: "fa-file", Color: "gray"}

var extensionTypes = map[string]FileType{
	"doc":  {Type: "word", Icon: "fa-file-word", Color: "blue"},
	"docx": {Type: "word", Icon: "fa-file-word", Color: "blue"},
	"xls":  {Type: "excel", Icon: "fa-file-excel", Color: "green"},
	"xlsx": {Type: "excel", Icon: "fa-file-excel", Color: "green"},
	"pdf":  {Type: "pdf", Icon: "fa-file-pdf", Color: "red"},
	"txt":  {Type: "text", Icon: "fa-file-lines", Color: "gray"},
	"zip":  {Type: "archive", Icon: "fa-file-zipper", Color: "purple"},
	"exe":  {Type: "executable", Icon: "fa-file-code", Color: "yellow"},
}

// Classify maps a file name to its display type by extension
func Classify(name string) FileType {
	if ft, ok := extensionTypes[utils.Extension(name)]; ok {
		return ft
	}
	return unknownType
}

// NewFile builds a file record for an uploaded name
func NewFile(name string) File {
	ft := Classify(name)
	return File{Name: name, Type: ft.Type, Icon: ft.Icon, Color: ft.Color}
}

// executableTypes are binary formats treated like .exe regardless of name
var executableTypes = []string{
	"application/vnd.microsoft.portable-executable",
	"application/x-msdownload",
	"application/x-elf",
	"application/x-executable",
	"application/x-mach-binary",
}

// IsExecutable reports whether an upload is an executable, either by its
// .exe extension or by sniffing the content for a native binary header
func IsExecutable(name string, content []byte) bool {
	if utils.Extension(name) == "exe" {
		return true
	}
	if len(content) == 0 {
		return false
	}

	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		for _, t := range executableTypes {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

// DetectMIME returns the sniffed content type of an upload
func DetectMIME(content []byte) string {
	return mimetype.Detect(content).String()
}
