package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
)

// Service creates Stores namespaced by prefix/id/tag.
type Service interface {
	NewStore(prefix, id, tag string) Store
}

// Store persists and loads a single JSON-serializable value.
type Store interface {
	Save(data interface{}) error
	Load(data interface{}) error
}

// ErrNotExists is returned by Load when no data has been saved yet.
var ErrNotExists = fmt.Errorf("persistence data not exists")

// JSONFileService is a flat-file JSON persistence backend: one file per
// store key, written atomically (write-tmp-then-rename) so a crash mid-save
// never leaves a half-written AgentState snapshot on disk (spec.md 7,
// "storage failures propagate; tick fails and is retried on next alarm" —
// a torn write would otherwise look like corruption instead of a clean
// failure).
type JSONFileService struct {
	baseDir string
}

// NewJSONFileService returns a service rooted at baseDir.
func NewJSONFileService(baseDir string) *JSONFileService {
	return &JSONFileService{
		baseDir: baseDir,
	}
}

// NewStore returns a Store for the given namespaced key.
func (s *JSONFileService) NewStore(prefix, id, tag string) Store {
	key := fmt.Sprintf("%s:%s:%s", prefix, id, tag)
	return &JSONFileStore{
		service: s,
		key:     key,
	}
}

// JSONFileStore is the per-key handle returned by JSONFileService.
type JSONFileStore struct {
	service *JSONFileService
	key     string
}

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *JSONFileStore) filePath() string {
	safe := keySanitizer.ReplaceAllString(s.key, "_")
	return filepath.Join(s.service.baseDir, safe+".json")
}

// Save atomically writes data as indented JSON.
func (s *JSONFileStore) Save(data interface{}) error {
	logger.Debugf("[persistence] save key=%s", s.key)
	if err := os.MkdirAll(s.service.baseDir, 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	path := s.filePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads and unmarshals the stored value, returning ErrNotExists if
// nothing has been saved under this key yet.
func (s *JSONFileStore) Load(data interface{}) error {
	logger.Debugf("[persistence] load key=%s", s.key)
	path := s.filePath()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExists
		}
		return err
	}
	if len(b) == 0 {
		return ErrNotExists
	}
	return json.Unmarshal(b, data)
}

// LoadFields loads every field tagged `persistence:"..."` on obj from its
// own store key, leaving untagged fields untouched.
func LoadFields(obj interface{}, id string, service Service) error {
	return iterateFieldsByTag(obj, "persistence", true, func(
		tag string, field reflect.StructField, value reflect.Value,
	) error {
		logger.Debugf("[LoadFields] loading field %s, tag=%s", field.Name, tag)

		newValueInf := newTypeValueInterface(value.Type())

		store := service.NewStore("state", id, tag)
		if err := store.Load(&newValueInf); err != nil {
			if err == ErrNotExists {
				logger.Debugf("[LoadFields] no stored state for id=%s tag=%s", id, tag)
				return nil
			}
			return err
		}

		newValue := reflect.ValueOf(newValueInf)
		if value.Kind() != reflect.Ptr && newValue.Kind() == reflect.Ptr {
			newValue = newValue.Elem()
		}

		logger.Debugf("[LoadFields] %s = %v -> %v", field.Name, value, newValue)
		value.Set(newValue)
		return nil
	})
}

// SaveFields persists every field tagged `persistence:"..."` on obj to its
// own store key.
func SaveFields(obj interface{}, id string, service Service) error {
	return iterateFieldsByTag(obj, "persistence", true, func(
		tag string, ft reflect.StructField, fv reflect.Value,
	) error {
		logger.Debugf("[SaveFields] storing field %s, tag=%s", ft.Name, tag)

		inf := fv.Interface()
		store := service.NewStore("state", id, tag)
		return store.Save(inf)
	})
}

func iterateFieldsByTag(obj interface{}, tagName string, includeNested bool, fn func(tag string, field reflect.StructField, value reflect.Value) error) error {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("object must be a struct or pointer to struct")
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if !value.CanSet() {
			continue
		}

		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			if includeNested && value.Kind() == reflect.Struct {
				if err := iterateFieldsByTag(value.Addr().Interface(), tagName, includeNested, fn); err != nil {
					return err
				}
			}
			continue
		}

		tagParts := strings.Split(tag, ",")
		tagValue := tagParts[0]

		if err := fn(tagValue, field, value); err != nil {
			return err
		}
	}

	return nil
}

func newTypeValueInterface(typ reflect.Type) interface{} {
	if typ.Kind() == reflect.Ptr {
		return reflect.New(typ.Elem()).Interface()
	}
	return reflect.New(typ).Interface()
}
