package codepage

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestLookup(t *testing.T) {
	enc, err := Lookup("850")
	require.NoError(t, err)
	require.Equal(t, charmap.CodePage850, enc)

	enc, err = Lookup("cp437")
	require.NoError(t, err)
	require.Equal(t, charmap.CodePage437, enc)

	enc, err = Lookup("windows-1252")
	require.NoError(t, err)
	require.Equal(t, charmap.Windows1252, enc)

	enc, err = Lookup("UTF-8")
	require.NoError(t, err)
	require.Nil(t, enc)

	enc, err = Lookup("65001")
	require.NoError(t, err)
	require.Nil(t, enc)

	_, err = Lookup("12")
	require.Error(t, err)

	_, err = Lookup("no-such-encoding")
	require.Error(t, err)
}

func TestOEMOutsideWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("OEM code page depends on the system locale")
	}
	require.Nil(t, OEM())

	enc, err := Lookup("oem")
	require.NoError(t, err)
	require.Nil(t, enc)
}

func TestForNumber(t *testing.T) {
	_, ok := ForNumber(866)
	require.True(t, ok)
	_, ok = ForNumber(1)
	require.False(t, ok)
}

func TestForConsoleFallsBackToANSI(t *testing.T) {
	require.Equal(t, charmap.CodePage850, forConsole(850, 1252))
	require.Equal(t, charmap.Windows1252, forConsole(1, 1252))
	require.Nil(t, forConsole(1, UTF8))
	require.Nil(t, forConsole(UTF8, 1252))
	require.Nil(t, forConsole(0, 2))
}
