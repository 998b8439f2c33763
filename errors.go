// SPDX-License-Identifier: EPL-2.0

package audmix

import "errors"

var (
	// ErrNotInitialized is returned when the engine is used before a
	// successful Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAlreadyInitialized is returned by Initialize on a live engine.
	ErrAlreadyInitialized = errors.New("engine already initialized")

	// ErrNoMasterBus means the bus definitions do not contain a bus named
	// "master". Fatal at initialization.
	ErrNoMasterBus = errors.New("no master bus specified")

	// ErrUnknownBus means a bus definition or sound definition references
	// a bus name that does not exist. Fatal at load time.
	ErrUnknownBus = errors.New("unknown bus")

	// ErrDuplicateBus means two bus definitions share a name.
	ErrDuplicateBus = errors.New("duplicate bus name")

	// ErrBankNotLoaded is returned when unloading a sound bank that was
	// never loaded or has already been fully unloaded. This is a misuse
	// error, not a runtime fault.
	ErrBankNotLoaded = errors.New("sound bank not loaded")

	// ErrNoSamples means a sound definition lists no sample variants.
	ErrNoSamples = errors.New("sound definition has no samples")

	// ErrUnknownFormat means no decoder is registered for a sample file's
	// extension.
	ErrUnknownFormat = errors.New("no decoder for sample format")
)
