//go:build !cgo

package xmltasks

import "errors"

const canCompile = false

func compileSchema(path string) error {
	return errors.New("schema compilation needs libxml2, rebuild with CGO_ENABLED=1")
}
