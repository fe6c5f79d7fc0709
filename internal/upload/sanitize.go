package upload

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrBadFileName is returned for client file names that cannot be stored.
var ErrBadFileName = errors.New("unusable file name")

// reservedNames cannot be created as regular files on Windows, with or without an extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName reduces a client-supplied name to a single safe path
// component of the form base.ext. Directory parts are dropped, so
// "../../evil.sh" becomes "evil.sh".
func SanitizeFileName(raw string) (string, error) {
	name := raw
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"|?*`, r) {
			return "", errors.Wrapf(ErrBadFileName, "%q contains %q", raw, r)
		}
	}

	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return "", errors.Wrapf(ErrBadFileName, "%q needs a name and an extension", raw)
	}
	base, ext := name[:dot], name[dot+1:]
	if strings.Trim(base, ". ") == "" {
		return "", errors.Wrapf(ErrBadFileName, "%q has an empty name", raw)
	}

	stem := base
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if _, ok := reservedNames[strings.ToUpper(strings.TrimRight(stem, " "))]; ok {
		return "", errors.Wrapf(ErrBadFileName, "%q is a reserved device name", raw)
	}

	return base + "." + ext, nil
}
