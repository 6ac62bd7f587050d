// Package codepage resolves the text encoding used by console programs:
// the OEM code page on Windows, UTF-8 elsewhere.
package codepage

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// UTF8 is the code page identifier of UTF-8 on Windows.
const UTF8 = 65001

var fallbackOnce sync.Once

var byNumber = map[int]encoding.Encoding{
	37:    charmap.CodePage037,
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28605: charmap.ISO8859_15,
	54936: simplifiedchinese.GB18030,
	UTF8:  unicode.UTF8,
}

// ForNumber returns the encoding of a Windows code page number.
func ForNumber(cp int) (encoding.Encoding, bool) {
	enc, ok := byNumber[cp]
	return enc, ok
}

// OEM returns the encoding of the platform's OEM code page, or nil when
// console output is already UTF-8. An OEM code page without a known
// encoding falls back to the ANSI code page.
func OEM() encoding.Encoding {
	return forConsole(oemCodePage(), ansiCodePage())
}

func forConsole(oem, ansi int) encoding.Encoding {
	for _, cp := range []int{oem, ansi} {
		if cp == UTF8 {
			return nil
		}
		if enc, ok := ForNumber(cp); ok {
			return enc
		}
	}
	fallbackOnce.Do(func() {
		slog.Warn("no encoding for console code pages, reading output as UTF-8", "oem", oem, "ansi", ansi)
	})
	return nil
}

// Lookup resolves an encoding name for stream decoding. Accepted forms are
// "oem" (or empty), a code page number such as "850" or "cp850", and any
// IANA name such as "IBM850" or "windows-1252". UTF-8 resolves to nil.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "oem":
		return OEM(), nil
	case "utf-8", "utf8":
		return nil, nil
	}

	num := strings.TrimPrefix(n, "cp")
	if cp, err := strconv.Atoi(num); err == nil {
		enc, ok := ForNumber(cp)
		if !ok {
			return nil, fmt.Errorf("unsupported code page %d", cp)
		}
		if cp == UTF8 {
			return nil, nil
		}
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}
