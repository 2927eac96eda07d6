package object

import (
	"github.com/c360/objkit/errors"
)

// Encoder writes an object's parameters to some medium. The format is the
// encoder's business; Save only frames the call with the object's hooks.
type Encoder interface {
	Encode(o Object) error
}

// Decoder reads parameters into an object created by the caller.
type Decoder interface {
	Decode(o Object) error
}

// SaveHooks run around Encoder.Encode. Overrides must call the embedded
// Base's hook; Save fails otherwise.
type SaveHooks interface {
	SaveSerializablePre() error
	SaveSerializablePost() error
}

// LoadHooks run around Decoder.Decode. Overrides must call the embedded
// Base's hook; Load fails otherwise.
type LoadHooks interface {
	LoadSerializablePre() error
	LoadSerializablePost() error
}

type hookFlags struct {
	savePre, savePost, loadPre, loadPost bool
}

// SaveSerializablePre marks the base hook as called.
func (b *Base) SaveSerializablePre() error {
	b.hooks.savePre = true
	return nil
}

// SaveSerializablePost marks the base hook as called.
func (b *Base) SaveSerializablePost() error {
	b.hooks.savePost = true
	return nil
}

// LoadSerializablePre marks the base hook as called.
func (b *Base) LoadSerializablePre() error {
	b.hooks.loadPre = true
	return nil
}

// LoadSerializablePost marks the base hook as called and resolves AUTO
// parameters the decoder did not supply.
func (b *Base) LoadSerializablePost() error {
	b.hooks.loadPost = true
	b.params.InitAutoParameters()
	return nil
}

// Save runs SaveSerializablePre, enc.Encode and SaveSerializablePost in order
// and stops at the first failure.
func Save(o Object, enc Encoder) error {
	b := o.Core()
	hooks, ok := o.(SaveHooks)
	if !ok {
		hooks = b
	}
	b.hooks = hookFlags{}

	if err := hooks.SaveSerializablePre(); err != nil {
		return errors.Wrap(err, b.name, "Save", "pre-save hook")
	}
	if !b.hooks.savePre {
		return errors.WrapFatal(errors.ErrHookNotChained, b.name, "Save", "SaveSerializablePre")
	}
	if err := enc.Encode(o); err != nil {
		return errors.Wrap(err, b.name, "Save", "encode")
	}
	if err := hooks.SaveSerializablePost(); err != nil {
		return errors.Wrap(err, b.name, "Save", "post-save hook")
	}
	if !b.hooks.savePost {
		return errors.WrapFatal(errors.ErrHookNotChained, b.name, "Save", "SaveSerializablePost")
	}
	return nil
}

// Load runs LoadSerializablePre, dec.Decode and LoadSerializablePost in order
// and stops at the first failure.
func Load(o Object, dec Decoder) error {
	b := o.Core()
	hooks, ok := o.(LoadHooks)
	if !ok {
		hooks = b
	}
	b.hooks = hookFlags{}

	if err := hooks.LoadSerializablePre(); err != nil {
		return errors.Wrap(err, b.name, "Load", "pre-load hook")
	}
	if !b.hooks.loadPre {
		return errors.WrapFatal(errors.ErrHookNotChained, b.name, "Load", "LoadSerializablePre")
	}
	if err := dec.Decode(o); err != nil {
		return errors.Wrap(err, b.name, "Load", "decode")
	}
	if err := hooks.LoadSerializablePost(); err != nil {
		return errors.Wrap(err, b.name, "Load", "post-load hook")
	}
	if !b.hooks.loadPost {
		return errors.WrapFatal(errors.ErrHookNotChained, b.name, "Load", "LoadSerializablePost")
	}
	return nil
}
