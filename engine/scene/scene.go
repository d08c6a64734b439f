package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shape"
)

// ItemID identifies an item within its scene. IDs start at 1; 0 is never assigned.
type ItemID uint64

// Item is a drawable entry of a scene.
type Item struct {
	// ID is assigned by the scene on Add.
	ID ItemID
	// Key classifies the item's rendering requirements.
	Key shape.Key
	// Bounds is the world-space bounding box.
	Bounds common.AABox
	// Transform is the model-to-world matrix (column-major).
	Transform [16]float32
	// Bones holds the skinning matrices of a skinned item.
	Bones [][16]float32
	// Mesh is the item's geometry. It may be nil in headless scenes.
	Mesh gpu.Mesh
	// CastsShadow marks the item as a shadow caster.
	CastsShadow bool
}

// ItemBound is the part of an item needed to cull and sort it.
type ItemBound struct {
	ID     ItemID
	Key    shape.Key
	Bounds common.AABox
}

// ItemBounds is a list of item bounds, reused frame to frame by the jobs that produce it.
type ItemBounds []ItemBound

// Scene is an in-memory collection of drawable items. Items are stored densely and removed
// by swapping with the last entry, so iteration order changes on Remove.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Add stores item and assigns it a new ID. Any ID already set on item is ignored.
	//
	// Parameters:
	//   - item: the item to add
	//
	// Returns:
	//   - ItemID: the assigned ID
	Add(item Item) ItemID

	// Get returns a copy of the item with the given ID.
	//
	// Parameters:
	//   - id: the item's ID
	//
	// Returns:
	//   - Item: the item
	//   - bool: false if no item has that ID
	Get(id ItemID) (Item, bool)

	// Update applies fn to the stored item with the given ID. fn must not change the ID.
	//
	// Parameters:
	//   - id: the item's ID
	//   - fn: the mutation
	//
	// Returns:
	//   - bool: false if no item has that ID
	Update(id ItemID, fn func(item *Item)) bool

	// Remove deletes the item with the given ID. Unknown IDs are ignored.
	Remove(id ItemID)

	// Clear removes every item.
	Clear()

	// Count returns the number of items.
	Count() int

	// ForEachShadowCaster calls fn with the bounds of every item flagged as a shadow caster.
	// fn runs under the scene's read lock and must not call back into the scene.
	//
	// Parameters:
	//   - fn: the visitor
	ForEachShadowCaster(fn func(ItemBound))
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	items  []Item
	index  map[ItemID]int
	nextID ItemID
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		index:  make(map[ItemID]int),
		nextID: 1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Add(item Item) ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(item)
}

func (s *scene) add(item Item) ItemID {
	item.ID = s.nextID
	s.nextID++
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	return item.ID
}

func (s *scene) Get(id ItemID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

func (s *scene) Update(id ItemID, fn func(item *Item)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	fn(&s.items[i])
	s.items[i].ID = id
	return true
}

func (s *scene) Remove(id ItemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.index[s.items[i].ID] = i
	}
	s.items[last] = Item{}
	s.items = s.items[:last]
	delete(s.index, id)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	s.items = s.items[:0]
	clear(s.index)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *scene) ForEachShadowCaster(fn func(ItemBound)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		it := &s.items[i]
		if it.CastsShadow {
			fn(ItemBound{ID: it.ID, Key: it.Key, Bounds: it.Bounds})
		}
	}
}
