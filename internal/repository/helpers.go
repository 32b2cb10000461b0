package repository

import (
	"fmt"
	"strings"
)

// nullIfEmpty maps "" to SQL NULL
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// whereBuilder accumulates AND conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends a condition; each "?" in cond is replaced by the next $n placeholder sharing value
func (w *whereBuilder) add(cond string, value interface{}) {
	w.args = append(w.args, value)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

// next returns the placeholder for the next argument
func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}
