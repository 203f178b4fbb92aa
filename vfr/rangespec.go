/*
DESCRIPTION
  rangespec.go parses the field-map "range spec" mini-language used to
  build a FieldMap: comma-separated tokens of the form "A-B" (inclusive
  source range) or "PAD_n" (n padding entries).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vfr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tbcorc/orc/ids"
)

func parseRangeSpec(spec string) (FieldMap, error) {
	var m FieldMap
	if strings.TrimSpace(spec) == "" {
		return m, nil
	}
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "PAD_") {
			n, err := strconv.Atoi(strings.TrimPrefix(tok, "PAD_"))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("vfr: invalid padding token %q", tok)
			}
			for i := 0; i < n; i++ {
				m = append(m, ids.FieldIDInvalid)
			}
			continue
		}
		parts := strings.SplitN(tok, "-", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("vfr: invalid range token %q", tok)
		}
		start, err1 := strconv.ParseUint(parts[0], 10, 64)
		end, err2 := strconv.ParseUint(parts[1], 10, 64)
		if err1 != nil || err2 != nil || end < start {
			return nil, fmt.Errorf("vfr: invalid range token %q", tok)
		}
		for v := start; v <= end; v++ {
			m = append(m, ids.FieldID(v))
		}
	}
	return m, nil
}
