// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textnorm canonicalises free-text input before it is compared or stored.
//
// # Usage
//
// Address fields take part in a uniqueness key, so two visually identical
// strings must also be byte-identical. "Gdańsk" typed with a precomposed "ń" and
// with "n" + combining acute would otherwise be two different cities.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean trims surrounding whitespace and normalises s to Unicode NFC.
//
// Inner whitespace is kept as typed.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
