package run

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/iancoleman/strcase"
	"golang.org/x/exp/maps"
)

// UpdateConfig records the config of the run.
// c may be a map, or a struct whose exported fields are recorded under their snake_case names
// (or the name given by a `config` tag; a tag of "-" skips the field)
func (r *Run) UpdateConfig(c any) error {
	values, err := configValues(c)
	if err != nil {
		return err
	}

	r.mut.Lock()
	defer r.mut.Unlock()
	for k, v := range values {
		r.record.Config[k] = v
	}

	keys := maps.Keys(r.record.Config)
	sort.Strings(keys)
	slog.Debug("Updated run config", "run_id", r.Id, "keys", keys)
	return nil
}

// Config returns a copy of the recorded config
func (r *Run) Config() map[string]any {
	r.mut.Lock()
	defer r.mut.Unlock()
	return maps.Clone(r.record.Config)
}

func configValues(c any) (map[string]any, error) {
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	res := make(map[string]any)
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("config map must have string keys, got %s", v.Type().Key())
		}
		iter := v.MapRange()
		for iter.Next() {
			res[iter.Key().String()] = iter.Value().Interface()
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Tag.Get("config")
			if name == "-" {
				continue
			}
			if name == "" {
				name = strcase.ToSnake(field.Name)
			}
			res[name] = v.Field(i).Interface()
		}
	default:
		return nil, fmt.Errorf("config must be a struct or map, got %T", c)
	}
	return res, nil
}
