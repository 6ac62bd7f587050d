package cmdline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendSwitchIfNotEmpty(t *testing.T) {
	var b Builder
	b.AppendSwitch("/nologo")
	b.AppendSwitchIfNotEmpty("/category:", "")
	b.AppendSwitchIfNotEmpty("/category:", "Unit")
	b.AppendSwitchIfNotEmpty("--output ", "cover.xml")
	b.AppendSwitchIfNotEmpty(" ", "bare")
	b.AppendSwitchesIfNotEmpty("/testcontainer:", []string{"a.dll", "", "b.dll"})

	require.Equal(t, []string{
		"/nologo",
		"/category:Unit",
		"--output", "cover.xml",
		"bare",
		"/testcontainer:a.dll", "/testcontainer:b.dll",
	}, b.Args())
	require.Equal(t, 8, b.Len())
}

func TestAppendFileNameIfNotEmpty(t *testing.T) {
	var b Builder
	b.AppendFileNameIfNotEmpty("")
	b.AppendFileNameIfNotEmpty("/opt/my tool/cli.js")
	require.Equal(t, []string{"/opt/my tool/cli.js"}, b.Args())
	require.Equal(t, `'/opt/my tool/cli.js'`, b.String())
}

func TestAppendTextUnquoted(t *testing.T) {
	var b Builder
	require.NoError(t, b.AppendTextUnquoted("   "))
	require.NoError(t, b.AppendTextUnquoted(`build --prefix "my dir" -x`))
	require.Equal(t, []string{"build", "--prefix", "my dir", "-x"}, b.Args())

	require.Error(t, b.AppendTextUnquoted(`"unterminated`))
	require.Equal(t, 4, b.Len())
}

func TestArgsIsACopy(t *testing.T) {
	var b Builder
	b.AppendSwitch("a")
	args := b.Args()
	args[0] = "changed"
	require.Equal(t, []string{"a"}, b.Args())
}
