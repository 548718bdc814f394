package program

import (
	"github.com/maypok86/otter"
)

// signatureCacheSize bounds the parsed-signature cache.
const signatureCacheSize = 10_000

// Model is the program model the importer resolves against: the registry of
// classes and methods owned by the host analysis.
type Model interface {
	// Class returns the named class, or nil.
	Class(name string) *Class

	// MakeClass returns the named class, creating a phantom class when absent.
	MakeClass(name string) *Class

	// GrabMethod returns the method with the given signature, or nil.
	GrabMethod(signature string) *Method

	// ParseSignature parses a method signature.
	ParseSignature(signature string) (MethodSignature, error)

	// Classes returns all classes in registration order.
	Classes() []*Class
}

// Scene is the in-memory Model.
type Scene struct {
	classes map[string]*Class
	order   []*Class

	sigCache *otter.Cache[string, MethodSignature]
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	s := &Scene{classes: make(map[string]*Class)}

	// The cache is an optimization; signatures are parsed directly without it.
	if cache, err := otter.MustBuilder[string, MethodSignature](signatureCacheSize).Build(); err == nil {
		s.sigCache = &cache
	}
	return s
}

func (s *Scene) Class(name string) *Class {
	return s.classes[name]
}

func (s *Scene) MakeClass(name string) *Class {
	if c, ok := s.classes[name]; ok {
		return c
	}
	c := newClass(name)
	c.Phantom = true
	s.classes[name] = c
	s.order = append(s.order, c)
	return c
}

func (s *Scene) Classes() []*Class {
	out := make([]*Class, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scene) GrabMethod(signature string) *Method {
	sig, err := s.ParseSignature(signature)
	if err != nil {
		return nil
	}
	c := s.classes[sig.Class]
	if c == nil {
		return nil
	}
	return c.MethodBySubSignature(sig.SubSignature())
}

func (s *Scene) ParseSignature(signature string) (MethodSignature, error) {
	if s.sigCache != nil {
		if sig, ok := s.sigCache.Get(signature); ok {
			return sig, nil
		}
	}

	sig, err := ParseSignature(signature)
	if err != nil {
		return MethodSignature{}, err
	}

	if s.sigCache != nil {
		s.sigCache.Set(signature, sig)
	}
	return sig, nil
}

// Close releases the signature cache.
func (s *Scene) Close() {
	if s.sigCache != nil {
		s.sigCache.Close()
	}
}
