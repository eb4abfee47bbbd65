package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// FolderOverride is the kiosk-side configuration of a single product folder.
type FolderOverride struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Media string `yaml:"media"`
	Hide  bool   `yaml:"hide"`
}

type Folders struct {
	MissingMedia string           `yaml:"missing_media"` // used when neither the API nor the override has media
	Folders      []FolderOverride `yaml:"folders"`
}

// LoadFolders reads folder overrides from path. A missing file yields an empty configuration.
func LoadFolders(path string) (*Folders, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("folders file not found, using API folders as is", slog.String("path", path))
		return &Folders{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't read folders file: %w", err)
	}

	return ParseFolders(data)
}

func ParseFolders(data []byte) (*Folders, error) {
	var f Folders
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("can't parse folders: %w", err)
	}

	seen := make(map[int]struct{}, len(f.Folders))
	for _, fo := range f.Folders {
		if _, ok := seen[fo.ID]; ok {
			return nil, fmt.Errorf("folder %d configured twice", fo.ID)
		}
		seen[fo.ID] = struct{}{}
	}

	return &f, nil
}

func (f *Folders) Lookup(id int) (FolderOverride, bool) {
	if f == nil {
		return FolderOverride{}, false
	}

	for _, fo := range f.Folders {
		if fo.ID == id {
			return fo, true
		}
	}
	return FolderOverride{}, false
}
