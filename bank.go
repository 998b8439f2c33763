// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// SoundBankDef mirrors the on-disk sound bank file layout: a named set of
// sound definitions that load and unload together.
type SoundBankDef struct {
	Name   string     `json:"name"`
	Sounds []SoundDef `json:"sounds"`
}

// loadSoundBankDef reads a JSON sound bank definition file.
func loadSoundBankDef(path string) (SoundBankDef, error) {
	var def SoundBankDef

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("reading sound bank: %w", err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parsing sound bank %s: %w", path, err)
	}
	return def, nil
}

// soundBank is a loaded bank: its definition plus a reference count over
// LoadSoundBank/UnloadSoundBank pairs for the same path.
type soundBank struct {
	def  SoundBankDef
	path string
	refs int
}

// LoadSoundBank loads the bank definition at path and every sound
// collection it names. Banks are reference-counted by path: loading the
// same bank twice is cheap and requires two unloads. Collections shared
// between banks are loaded once and counted per referencing bank.
func (e *Engine) LoadSoundBank(path string) error {
	if !e.initialized {
		return ErrNotInitialized
	}

	if bank, ok := e.banks[path]; ok {
		bank.refs++
		logrus.WithFields(logrus.Fields{
			"bank": path,
			"refs": bank.refs,
		}).Debug("Sound bank already loaded, reference added")
		return nil
	}

	def, err := loadSoundBankDef(path)
	if err != nil {
		return err
	}

	loaded := make([]string, 0, len(def.Sounds))
	for _, soundDef := range def.Sounds {
		if err := e.loadCollection(soundDef); err != nil {
			// Roll back the collections this bank already referenced so a
			// failed load leaves no half-loaded bank behind.
			for _, name := range loaded {
				e.releaseCollection(name)
			}
			return fmt.Errorf("loading sound bank %s: %w", path, err)
		}
		loaded = append(loaded, soundDef.Name)
	}

	e.banks[path] = &soundBank{def: def, path: path, refs: 1}
	logrus.WithFields(logrus.Fields{
		"bank":   path,
		"sounds": len(def.Sounds),
	}).Info("Sound bank loaded")
	return nil
}

// UnloadSoundBank drops one reference to the bank at path. At zero the
// bank's collections are released; a collection disappears once no loaded
// bank references it. Unloading a bank that is not loaded is a misuse
// error.
func (e *Engine) UnloadSoundBank(path string) error {
	if !e.initialized {
		return ErrNotInitialized
	}

	bank, ok := e.banks[path]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"bank": path,
		}).Error("Unload of sound bank that is not loaded")
		return fmt.Errorf("%w: %s", ErrBankNotLoaded, path)
	}

	bank.refs--
	if bank.refs > 0 {
		return nil
	}

	for _, soundDef := range bank.def.Sounds {
		e.releaseCollection(soundDef.Name)
	}
	delete(e.banks, path)
	logrus.WithFields(logrus.Fields{
		"bank": path,
	}).Info("Sound bank unloaded")
	return nil
}

// loadCollection loads one sound definition, or adds a reference when a
// collection with the same name is already loaded through another bank.
func (e *Engine) loadCollection(def SoundDef) error {
	if existing, ok := e.collections[def.Name]; ok {
		existing.refs++
		return nil
	}

	collection, err := newSoundCollection(def, e.busByName, e.formats)
	if err != nil {
		return err
	}
	collection.refs = 1
	e.collections[def.Name] = collection
	return nil
}

// releaseCollection drops one reference to a collection, removing it when
// no bank references it anymore.
func (e *Engine) releaseCollection(name string) {
	collection, ok := e.collections[name]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"sound": name,
		}).Error("Release of sound collection that is not loaded")
		return
	}

	collection.refs--
	if collection.refs <= 0 {
		delete(e.collections, name)
	}
}
