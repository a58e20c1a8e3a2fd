// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// formatError renders every CUE error in err as "<field path>: <message>"
// below a single filename prefix:
//
//	config.cue: container_engine: 2 errors in empty disjunction; registry: field not allowed
//
// Errors that carry no CUE detail are wrapped with the filename only.
func formatError(err error, filename string) error {
	var cueErr cueerrors.Error
	if !errors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filename, err)
	}

	list := cueerrors.Errors(err)

	seen := make(map[string]bool, len(list))
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := fieldPath(cueerrors.Path(e)); path != "" {
			msg = path + ": " + msg
		}
		if !seen[msg] {
			seen[msg] = true
			msgs = append(msgs, msg)
		}
	}
	return fmt.Errorf("%s: %s", filename, strings.Join(msgs, "; "))
}

// fieldPath joins CUE path selectors with dots; list indexes become "[n]".
func fieldPath(selectors []string) string {
	var b strings.Builder
	for i, sel := range selectors {
		if _, err := strconv.Atoi(sel); err == nil && i > 0 {
			b.WriteString("[" + sel + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}
