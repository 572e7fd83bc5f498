// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidSettings indicates that the settings are not a JSON object.
var ErrInvalidSettings = errors.New("ffi: settings must be a JSON object")

// PrepareSettings returns a copy of the given JSON settings where the
// assets_dir, state_dir, and temp_dir fields point below dir. All the
// other fields, including numbers, are preserved as they are.
func PrepareSettings(settings []byte, dir string) ([]byte, error) {
	var object map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(settings))
	if err := dec.Decode(&object); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if object == nil {
		return nil, ErrInvalidSettings
	}
	dirs := map[string]string{
		"assets_dir": filepath.Join(dir, "assets"),
		"state_dir":  filepath.Join(dir, "state"),
		"temp_dir":   filepath.Join(dir, "tmp"),
	}
	for key, value := range dirs {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		object[key] = encoded
	}
	return json.Marshal(object)
}
