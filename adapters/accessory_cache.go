package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"heatzy-to-mqtt/application"

	"gopkg.in/yaml.v3"
)

type accessoryCacheFile struct {
	Accessories []application.Accessory `yaml:"accessories"`
}

// FileAccessoryCache keeps the registered accessories in a YAML file so the
// ones that disappeared from the account can be removed on the next start.
type FileAccessoryCache struct {
	path string
}

func NewFileAccessoryCache(path string) *FileAccessoryCache {
	return &FileAccessoryCache{path: path}
}

func (f *FileAccessoryCache) Load() ([]application.Accessory, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accessory cache: %w", err)
	}

	var file accessoryCacheFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing accessory cache: %w", err)
	}
	return file.Accessories, nil
}

// Save replaces the file atomically.
func (f *FileAccessoryCache) Save(accessories []application.Accessory) error {
	data, err := yaml.Marshal(accessoryCacheFile{Accessories: accessories})
	if err != nil {
		return fmt.Errorf("encoding accessory cache: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("creating accessory cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing accessory cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing accessory cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing accessory cache: %w", err)
	}
	return nil
}

var _ application.AccessoryCache = &FileAccessoryCache{}
