package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// ParseBase36 reads an object or channel id such as "0Z".
func ParseBase36(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 36, 64)
	if nil != err {
		return 0, fmt.Errorf("invalid base-36 id %q", s)
	}
	return v, nil
}

// FormatBase36 writes v as upper-case base-36, zero padded to width.
func FormatBase36(v int64, width int) string {
	s := strings.ToUpper(strconv.FormatInt(v, 36))
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// DecodeSource returns chart text. Sources that are not valid UTF-8 are
// read as Shift-JIS, the usual encoding of BMS files.
func DecodeSource(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if nil != err {
		return string(data)
	}
	return string(out)
}

// ResolvePath finds the file a chart refers to as rel inside dir. When the
// exact name does not exist, the same stem with any of exts is tried, and
// names are compared case-insensitively.
func ResolvePath(dir, rel string, exts ...string) (string, error) {
	exact := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(rel, "\\", "/")))
	if _, err := os.Stat(exact); nil == err {
		return exact, nil
	}

	folder := filepath.Dir(exact)
	base := filepath.Base(exact)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	candidates := []string{base}
	for _, ext := range exts {
		candidates = append(candidates, stem+ext)
	}

	entries, err := os.ReadDir(folder)
	if nil != err {
		return "", fmt.Errorf("unable to resolve %v: %w", rel, err)
	}
	for _, want := range candidates {
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(entry.Name(), want) {
				return filepath.Join(folder, entry.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("unable to resolve %v: %w", rel, os.ErrNotExist)
}
