//go:build windows

package codepage

import "golang.org/x/sys/windows"

var procGetOEMCP = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetOEMCP")

func oemCodePage() int {
	if err := procGetOEMCP.Find(); err != nil {
		return 0
	}
	cp, _, _ := procGetOEMCP.Call()
	return int(cp)
}

func ansiCodePage() int {
	return int(windows.GetACP())
}
