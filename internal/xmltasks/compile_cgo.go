//go:build cgo

package xmltasks

import (
	"sync"

	xsdvalidate "github.com/terminalstatic/go-xsd-validate"
)

const canCompile = true

var (
	initOnce sync.Once
	initErr  error
)

// compileSchema parses the schema at path with libxml2, resolving its
// includes and imports relative to path.
func compileSchema(path string) error {
	initOnce.Do(func() { initErr = xsdvalidate.Init() })
	if initErr != nil {
		return initErr
	}

	handler, err := xsdvalidate.NewXsdHandlerUrl(path, xsdvalidate.ParsErrVerbose)
	if err != nil {
		return err
	}
	handler.Free()
	return nil
}
