package memory

import (
	"fmt"
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/resource"
)

// DefaultPages is the page count of a freshly set up address space
const DefaultPages = 1

// AddressSpaces is an in-memory address space manager limited by total pages
type AddressSpaces struct {
	mu     sync.Mutex
	limit  int
	seq    int
	pages  int
	spaces map[int]*resource.AddressSpace
}

// Setup creates an address space for image
func (a *AddressSpaces) Setup(image string) (*resource.AddressSpace, error) {
	return a.allocate(image, DefaultPages)
}

// Copy duplicates src
func (a *AddressSpaces) Copy(src *resource.AddressSpace) (*resource.AddressSpace, error) {
	if src == nil {
		return nil, fmt.Errorf("copyuvm: %w: nil source", proc.ErrAddressSpace)
	}
	return a.allocate(src.Image, src.Pages)
}

func (a *AddressSpaces) allocate(image string, pages int) (*resource.AddressSpace, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit > 0 && a.pages+pages > a.limit {
		return nil, fmt.Errorf("address space %v: %w", image, proc.ErrAddressSpace)
	}
	a.seq++
	ret := &resource.AddressSpace{ID: a.seq, Image: image, Pages: pages}
	a.spaces[ret.ID] = ret
	a.pages += pages
	return ret, nil
}

// Free releases address space
func (a *AddressSpaces) Free(space *resource.AddressSpace) {
	if space == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.spaces[space.ID]; !ok {
		panic(fmt.Sprintf("freevm: address space %d not allocated", space.ID))
	}
	delete(a.spaces, space.ID)
	a.pages -= space.Pages
}

// InUse returns number of live address spaces
func (a *AddressSpaces) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.spaces)
}

// NewAddressSpaces creates an address space manager, limit 0 means unlimited pages
func NewAddressSpaces(limit int) *AddressSpaces {
	return &AddressSpaces{limit: limit, spaces: make(map[int]*resource.AddressSpace)}
}

var _ resource.AddressSpaces = (*AddressSpaces)(nil)
