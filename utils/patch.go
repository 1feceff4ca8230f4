package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO collects the non-nil pointer fields of a partial-update DTO
// into a column map for gorm Updates. Column names come from the json tag
// (options after the comma stripped); renames translates json names to columns
// that differ, e.g. {"patient_id": "p_id"}.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	updates := make(map[string]any)
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr {
		return updates
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return updates
	}
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := s.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		col := strings.Split(tag, ",")[0]
		if alt, ok := renames[col]; ok && alt != "" {
			col = alt
		}
		updates[col] = fv.Elem().Interface()
	}
	return updates
}

// ParseIntDefault reads a non-negative int query parameter, falling back to def
// on anything unparsable or negative.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}
