package scene

import "fmt"

// Batch returns the batch with the given ID.
func (s *SceneModel) Batch(id BatchID) (*RenderableBatch, bool) {
	if s == nil || id == 0 || int(id) > len(s.Batches) {
		return nil, false
	}
	return s.Batches[id-1], true
}

// Resolve maps a render hit back to the element it was placed for.
// The instance index is ignored for singleton batches.
func (s *SceneModel) Resolve(id BatchID, instance int) (ElementID, error) {
	if s.Disposed() {
		return 0, ErrSceneDisposed
	}
	b, ok := s.Batch(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBatch, id)
	}

	switch p := b.Placement.(type) {
	case Singleton:
		return p.Element, nil
	case Instanced:
		if instance < 0 || instance >= len(p.Elements) {
			return 0, fmt.Errorf("%w: batch %d instance %d of %d", ErrInvalidPickIndex, id, instance, len(p.Elements))
		}
		return p.Elements[instance], nil
	default:
		return 0, fmt.Errorf("%w: batch %d has no placement", ErrUnknownBatch, id)
	}
}

// ElementInfo is the human-readable identity of a model element.
type ElementInfo struct {
	Type string
	Name string
}

// Metadata looks up element descriptions after a successful resolve.
type Metadata interface {
	Element(id ElementID) (ElementInfo, bool)
}

// Describe resolves a hit and looks the element up in md.
// A resolved element without metadata returns a zero ElementInfo.
func (s *SceneModel) Describe(id BatchID, instance int, md Metadata) (ElementID, ElementInfo, error) {
	elem, err := s.Resolve(id, instance)
	if err != nil {
		return 0, ElementInfo{}, err
	}
	if md == nil {
		return elem, ElementInfo{}, nil
	}
	info, _ := md.Element(elem)
	return elem, info, nil
}
